package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/sulitulab/dingding-gemini-chatbot/project/domain"
)

// LoadReplies は YAML ファイルから文言を読み込みます
// path が空の場合は既定の文言を返し、ファイルで未指定の項目も既定値で補います
func LoadReplies(path string) (domain.Replies, error) {
	if path == "" {
		return domain.DefaultReplies(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Replies{}, errors.Wrapf(err, "config: 文言ファイル読み込み失敗 (path=%s)", path)
	}

	var replies domain.Replies
	if err := yaml.Unmarshal(data, &replies); err != nil {
		return domain.Replies{}, errors.Wrapf(err, "config: 文言ファイル解析失敗 (path=%s)", path)
	}

	replies = replies.WithDefaults()
	if err := replies.Validate(); err != nil {
		return domain.Replies{}, errors.Wrapf(err, "config: 文言ファイルが不正です (path=%s)", path)
	}

	return replies, nil
}

package dto

// RobotTextMessage はロボット送信APIのテキストメッセージです
type RobotTextMessage struct {
	MsgType string    `json:"msgtype"`
	Text    RobotText `json:"text"`
	At      *RobotAt  `json:"at,omitempty"`
}

// RobotText は本文です
type RobotText struct {
	Content string `json:"content"`
}

// RobotAt はメンション指定です
type RobotAt struct {
	AtUserIDs []string `json:"atUserIds,omitempty"`
	AtMobiles []string `json:"atMobiles,omitempty"`
	IsAtAll   bool     `json:"isAtAll"`
}

// RobotResponse はロボット送信APIのレスポンスです
type RobotResponse struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

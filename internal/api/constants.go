package api

// 命令面结果代码。与推送通道里生命周期消息的代码一致。
const (
	CodeInitSuccess = "sleepInitSuccess"
	CodeInitError   = "sleepInitError"
	CodeStopSuccess = "sleepStopSuccess"
	CodeStopError   = "sleepStopError"
)

// 上报通道拒绝原因（指标标签）
const (
	rejectRateLimited  = "rate_limited"
	rejectMalformed    = "malformed"
	rejectUnsubscribed = "unsubscribed"
)

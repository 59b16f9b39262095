package subscription

import (
	"errors"
	"fmt"
)

// State 进程级订阅状态。仅由 Controller 持有并通过其
// 文档化的迁移修改；进程重启后总是从 Unsubscribed 开始，
// 即使提供方侧的订阅仍然存活（已知缺口，见 DESIGN.md）。
type State int

const (
	// Unsubscribed 未订阅
	Unsubscribed State = iota
	// Pending 订阅/退订等待提供方确认
	Pending
	// Subscribed 已订阅，投递可以到达
	Subscribed
)

func (s State) String() string {
	switch s {
	case Unsubscribed:
		return "unsubscribed"
	case Pending:
		return "pending"
	case Subscribed:
		return "subscribed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Op 生命周期操作种类
type Op string

const (
	// OpSubscribe 订阅
	OpSubscribe Op = "subscribe"
	// OpUnsubscribe 退订
	OpUnsubscribe Op = "unsubscribe"
)

// Lifecycle 一次订阅/退订尝试的一次性结果通知。
// 每次尝试恰好产生一个，交给各接收方消费后即丢弃，不在内存保留。
type Lifecycle struct {
	Op     Op
	OK     bool
	Reason string
}

// Message 人类可读消息，落盘与远端 {"data": …} 上报共用
func (l Lifecycle) Message() string {
	switch {
	case l.Op == OpSubscribe && l.OK:
		return "Successfully subscribed to sleep data."
	case l.Op == OpSubscribe:
		return fmt.Sprintf("Exception when subscribing to sleep data: %s", l.Reason)
	case l.Op == OpUnsubscribe && l.OK:
		return "Successfully unsubscribed from sleep data."
	default:
		return fmt.Sprintf("Exception when unsubscribing from sleep data: %s", l.Reason)
	}
}

// Code 命令面使用的结果代码
func (l Lifecycle) Code() string {
	switch {
	case l.Op == OpSubscribe && l.OK:
		return "sleepInitSuccess"
	case l.Op == OpSubscribe:
		return "sleepInitError"
	case l.Op == OpUnsubscribe && l.OK:
		return "sleepStopSuccess"
	default:
		return "sleepStopError"
	}
}

// 命令面可见的错误。持久化/上报类错误在各自组件边界被吞掉，
// 只有权限与提供方生命周期失败会传到外层调用方。
var (
	// ErrPermissionDenied 活动识别权限被拒绝，start 未触达提供方
	ErrPermissionDenied = errors.New("activity recognition permission denied")
	// ErrTransitionInFlight 已有订阅状态变更在途
	ErrTransitionInFlight = errors.New("subscription state change already in progress")
)

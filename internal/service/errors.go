package service

import (
	"errors"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	Forbidden           = 403
	NotFound            = 404
	Conflict            = 409
	InternalServerError = 500
)

var (
	ErrParamInvalid        = errors.New("参数错误")
	ErrUserNotFound        = errors.New("用户不存在")
	ErrPostNotFound        = errors.New("帖子不存在")
	ErrInvalidAmount       = errors.New("金额必须大于0")
	ErrInsufficientBalance = errors.New("可用余额不足")
	ErrSelfTransfer        = errors.New("不能给自己转账")
	ErrAlreadyCredited     = errors.New("该笔奖励已入账")
	ErrInvalidLockPeriod   = errors.New("锁仓期不足最低天数")
	ErrStakeNotFound       = errors.New("锁仓记录不存在")
	ErrNotStakeOwner       = errors.New("无权操作他人锁仓")
	ErrStakeStillLocked    = errors.New("锁仓尚未到期")
	ErrStakeNotActive      = errors.New("锁仓已提取")
	ErrFlagNotFound        = errors.New("检测记录不存在")
	ErrFlagResolved        = errors.New("检测记录已处理")
	// 以下三项作为发放结果的 reason 原样返回给 CLI 与调用方，保持英文
	ErrAlreadyDistributed  = errors.New("already distributed")
	ErrNoActiveUsers       = errors.New("no active users")
	ErrNoQualifyingUsers   = errors.New("no qualifying users")
	ErrDistributionMissing = errors.New("当日奖励尚未发放")
	UnauthorizedError      = errors.New("权限不足")
	UnExpectedError        = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrParamInvalid:        BadRequest,
	ErrUserNotFound:        NotFound,
	ErrPostNotFound:        NotFound,
	ErrInvalidAmount:       BadRequest,
	ErrInsufficientBalance: BadRequest,
	ErrSelfTransfer:        BadRequest,
	ErrAlreadyCredited:     Conflict,
	ErrInvalidLockPeriod:   BadRequest,
	ErrStakeNotFound:       NotFound,
	ErrNotStakeOwner:       Forbidden,
	ErrStakeStillLocked:    BadRequest,
	ErrStakeNotActive:      BadRequest,
	ErrFlagNotFound:        NotFound,
	ErrFlagResolved:        Conflict,
	ErrAlreadyDistributed:  Conflict,
	ErrNoActiveUsers:       Conflict,
	ErrNoQualifyingUsers:   Conflict,
	ErrDistributionMissing: NotFound,
	UnauthorizedError:      Unauthorized,
	UnExpectedError:        InternalServerError,
}

// CodeOf 返回 err 对应的业务码，未登记的错误返回 InternalServerError
func CodeOf(err error) (int, bool) {
	for target, code := range ErrorMap {
		if errors.Is(err, target) {
			return code, true
		}
	}
	return InternalServerError, false
}

package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vcoin"

var (
	// DistributionRuns 每日发放执行次数，result: completed / already_distributed / no_active_users / no_qualifying_users / error
	DistributionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reward",
			Name:      "distribution_runs_total",
			Help:      "Total number of daily distribution runs by result",
		},
		[]string{"result"},
	)
	// DistributedVCN 每日发放实际入账的 VCN 总量
	DistributedVCN = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reward",
			Name:      "distributed_vcn_total",
			Help:      "Total VCN credited by daily distributions",
		},
	)
	// UserFailures 单用户处理失败次数，stage: score / credit
	UserFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reward",
			Name:      "user_failures_total",
			Help:      "Total number of per-user failures during distribution",
		},
		[]string{"stage"},
	)
	// BotFlags 机器人检测命中次数
	BotFlags = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reward",
			Name:      "bot_flags_total",
			Help:      "Total number of raised bot detection flags",
		},
		[]string{"flag_type"},
	)
	// LedgerOps 账本操作次数
	LedgerOps = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "operations_total",
			Help:      "Total number of ledger operations",
		},
		[]string{"op", "status"},
	)
	// ConsumedMessages canal 消息处理结果，result: ok / retry / dropped
	ConsumedMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "kafka",
			Name:      "consumed_messages_total",
			Help:      "Total number of consumed canal messages by result",
		},
		[]string{"topic", "result"},
	)
	requestCounter = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of requests",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)

// GinMiddleware 记录请求数与耗时，path 使用路由模板避免高基数
func GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		requestCounter.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

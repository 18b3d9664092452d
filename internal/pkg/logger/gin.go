package logger

import (
	"VCoin/internal/pkg/consts"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"
)

// accessSkipPaths 探活与指标抓取不记 access log
var accessSkipPaths = []string{"/metrics", "/api/ping"}

type accessEntry struct {
	Time        string `json:"time"`
	Level       string `json:"level"`
	Msg         string `json:"msg"`
	TraceID     string `json:"trace_id"`
	LogToken    string `json:"log_token,omitempty"`
	TargetIndex string `json:"target_index,omitempty"`
	Method      string `json:"method"`
	Path        string `json:"path"`
	ClientIP    string `json:"client_ip"`
	Status      int    `json:"status"`
	Latency     string `json:"latency"`
	UserID      uint64 `json:"user_id,omitempty"`
}

// SetupGin 注册 access log 与 recovery，access log 写入 LogWriter
func SetupGin(r *gin.Engine, token, index string) {
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		Output:    LogWriter,
		SkipPaths: accessSkipPaths,
		Formatter: func(p gin.LogFormatterParams) string {
			entry := accessEntry{
				Time:        p.TimeStamp.Format(time.RFC3339),
				Level:       "INFO",
				Msg:         "GIN_ACCESS",
				LogToken:    token,
				TargetIndex: index,
				Method:      p.Method,
				Path:        p.Path,
				ClientIP:    p.ClientIP,
				Status:      p.StatusCode,
				Latency:     p.Latency.String(),
			}
			if p.Keys != nil {
				entry.TraceID, _ = p.Keys[TraceIDKey].(string)
				entry.UserID, _ = p.Keys[consts.CtxUserID].(uint64)
			}
			if entry.TraceID == "" && p.Request != nil {
				entry.TraceID = TraceIDFrom(p.Request.Context())
			}

			line, err := json.Marshal(entry)
			if err != nil {
				return ""
			}
			return string(line) + "\n"
		},
	}))

	r.Use(gin.Recovery())
}

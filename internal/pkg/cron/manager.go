package cron

import (
	"VCoin/internal/api/config"
	"VCoin/internal/job"
	"context"
	"fmt"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine  *cron.Cron
	entries []entry
}

type entry struct {
	name string
	spec string
	job  cron.Job
}

func NewCronManager(
	cfg config.CronConfig,
	distributionJob *job.DistributionJob,
	qualityRefreshJob *job.QualityRefreshJob,
	reputationRefreshJob *job.ReputationRefreshJob,
	stakeSweepJob *job.StakeSweepJob,
) *Manager {
	return &Manager{
		engine: cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		entries: []entry{
			{name: "distribution", spec: cfg.Distribution, job: distributionJob},
			{name: "quality_refresh", spec: cfg.QualityRefresh, job: qualityRefreshJob},
			{name: "reputation_refresh", spec: cfg.ReputationRefresh, job: reputationRefreshJob},
			{name: "stake_sweep", spec: cfg.StakeSweep, job: stakeSweepJob},
		},
	}
}

// RegisterJobs 注册定时任务，表达式为空的任务不启用
func (s *Manager) RegisterJobs() error {
	for _, e := range s.entries {
		if e.spec == "" {
			log.Warn("cron job disabled", "job", e.name)
			continue
		}
		if _, err := s.engine.AddJob(e.spec, e.job); err != nil {
			return err
		}
		log.Info("cron job registered", "job", e.name, "spec", e.spec)
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

// Run 注册并启动任务，ctx 结束后等待运行中的任务退出
func (s *Manager) Run(ctx context.Context) error {
	if err := s.RegisterJobs(); err != nil {
		return fmt.Errorf("register cron jobs: %w", err)
	}
	s.Start()
	<-ctx.Done()
	s.Stop()
	return nil
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	<-s.engine.Stop().Done()
}

package cron

import (
	"Estuary/internal/api/config"
	"Estuary/internal/job"
	log "log/slog"

	"github.com/robfig/cron/v3"
)

type Manager struct {
	engine    *cron.Cron
	resyncJob *job.ResyncJob
}

func NewCronManager(resyncJob *job.ResyncJob) *Manager {
	return &Manager{
		engine:    cron.New(cron.WithSeconds()),
		resyncJob: resyncJob,
	}
}

// RegisterJobs 注册定时任务
func (s *Manager) RegisterJobs() error {
	if !config.Cfg.Resync.Enable {
		log.Info("补偿同步任务未启用")
		return nil
	}
	if _, err := s.engine.AddJob(config.Cfg.Resync.Spec, s.resyncJob); err != nil {
		return err
	}
	return nil
}

func (s *Manager) Start() {
	log.Info("Cron 定时任务引擎启动")
	s.engine.Start()
}

func (s *Manager) Stop() {
	log.Info("Cron 定时任务引擎停止")
	s.engine.Stop()
}

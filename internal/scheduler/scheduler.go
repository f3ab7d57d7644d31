package scheduler

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"linktrack/config"
	"linktrack/internal/antibot"
	"linktrack/internal/service"
)

// 计分状态中超过该时长未活动的条目在清理时丢弃
const stateMaxAge = 24 * time.Hour

// Scheduler 定时任务调度器
type Scheduler struct {
	cron      *cron.Cron
	jobMutex  sync.Mutex
	isRunning bool
	state     *antibot.ScoringState
	summary   *service.SummaryService
	jobIDs    map[string]cron.EntryID
}

// NewScheduler 创建调度器
func NewScheduler(state *antibot.ScoringState, summary *service.SummaryService) *Scheduler {
	return &Scheduler{
		cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		isRunning: false,
		state:     state,
		summary:   summary,
		jobIDs:    make(map[string]cron.EntryID),
	}
}

// Start 根据配置注册并启动定时任务
func (s *Scheduler) Start(cronJobs []config.CronJob) error {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	if s.isRunning {
		s.cron.Stop()
	}

	for _, job := range cronJobs {
		if job.Schedule == "" {
			log.Warnf("Job %s has invalid schedule, skipping", job.Name)
			continue
		}

		jobConfig := job // 创建副本避免闭包问题
		entryID, err := s.cron.AddFunc(jobConfig.Schedule, func() {
			s.executeJob(jobConfig)
		})
		if err != nil {
			log.Warnf("Failed to add job %s: %v", job.Name, err)
			continue
		}

		s.jobIDs[job.Name] = entryID
		log.Infof("Added job %s with schedule %s", job.Name, job.Schedule)
	}

	s.cron.Start()
	s.isRunning = true
	return nil
}

// Stop 停止调度器
func (s *Scheduler) Stop() {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	if s.isRunning {
		s.cron.Stop()
		s.isRunning = false
		log.Infoln("Scheduler stopped")
	}
}

// executeJob 执行定时任务
func (s *Scheduler) executeJob(job config.CronJob) {
	log.Infof("Executing job: %s", job.Name)

	defer func() {
		if r := recover(); r != nil {
			log.Errorf("Job %s panic: %v", job.Name, r)
		}
	}()

	if job.Cleanup {
		s.state.Cleanup(stateMaxAge)
	}
	if job.Summary {
		s.summary.SendDailySummary()
	}
}

// GetStatus 获取调度器状态
func (s *Scheduler) GetStatus() map[string]interface{} {
	s.jobMutex.Lock()
	defer s.jobMutex.Unlock()

	status := make(map[string]interface{})
	status["is_running"] = s.isRunning

	jobs := make(map[string]interface{})
	for name, id := range s.jobIDs {
		entry := s.cron.Entry(id)
		jobStatus := make(map[string]interface{})
		jobStatus["next_run"] = entry.Next.Format(time.RFC3339)
		jobStatus["prev_run"] = entry.Prev.Format(time.RFC3339)
		jobs[name] = jobStatus
	}

	status["jobs"] = jobs
	return status
}

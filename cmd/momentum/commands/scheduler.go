package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/momentum/internal/external"
	"github.com/wonny/momentum/internal/scanner"
	"github.com/wonny/momentum/internal/scheduler"
	"github.com/wonny/momentum/internal/scheduler/jobs"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "스케줄러 관리",
	Long: `정기 모멘텀 스캔(및 postgres 가격 동기화)을 스케줄합니다.

Subcommands:
  start   - 스케줄러 시작
  list    - 등록된 작업 목록
  run     - 특정 작업 즉시 실행

Example:
  go run ./cmd/momentum scheduler start
  go run ./cmd/momentum scheduler list
  go run ./cmd/momentum scheduler run momentum_scan`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "스케줄러 시작",
		Long: `스케줄러를 시작하고 등록된 모든 작업을 스케줄합니다.

등록되는 작업:
- momentum_scan: 평일 16:30 (SCAN_SCHEDULE)
- price_sync: 평일 16:00, PROVIDER=postgres 일 때만 (Yahoo → postgres)

스케줄러는 Ctrl+C로 종료할 수 있습니다.`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "등록된 작업 목록",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "특정 작업 즉시 실행",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Momentum Scheduler ===")

	sched, cleanup, err := initScheduler(cmd.Context())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	PrintList(sched.GetAllJobs())
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	sched, cleanup, err := initScheduler(cmd.Context())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	stats := sched.GetJobStats()

	fmt.Println("Registered jobs:")
	for _, name := range sched.GetAllJobs() {
		PrintKeyValue(name, stats[name].Schedule, 16)
	}
	return nil
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	fmt.Printf("Running job: %s\n", jobName)

	sched, cleanup, err := initScheduler(cmd.Context())
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	defer cleanup()

	result, err := sched.RunJob(jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	PrintKeyValue("Run ID", result.RunID, 10)
	PrintKeyValue("Attempts", fmt.Sprintf("%d", result.Attempts), 10)
	PrintKeyValue("Duration", result.Duration.String(), 10)
	if !result.Success {
		PrintError(result.Error)
		return fmt.Errorf("job %s failed", jobName)
	}
	PrintSuccess(fmt.Sprintf("Job %s completed", jobName))
	return nil
}

func initScheduler(ctx context.Context) (*scheduler.Scheduler, func(), error) {
	a, err := initApp(ctx)
	if err != nil {
		return nil, nil, err
	}
	closers := []func(){a.Close}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	sched := scheduler.New(a.log, scheduler.WithRetry(a.cfg.Fetch.MaxRetries, a.cfg.Fetch.RetryDelay))

	log := a.log.WithComponent("momentum_scan")
	scan := jobs.NewScanJob(a.scanner(), a.universe, a.cfg.ScanSchedule, func(r *scanner.Report) {
		if w, ok := r.Window(a.strategy.Scanner.Comparison.Short); ok && len(w.TopPerformers) > 0 {
			log.WithFields(map[string]interface{}{
				"window": w.Label,
				"leader": w.TopPerformers[0].Symbol,
				"return": w.TopPerformers[0].ReturnPct,
			}).Info("Scan leader")
		}
		log.WithFields(map[string]interface{}{
			"entered": r.Comparison.EnteredTop,
			"dropped": r.Comparison.DroppedFromTop,
		}).Info("Scan comparison")
	}, a.log)
	if err := sched.AddJob(scan); err != nil {
		cleanup()
		return nil, nil, err
	}

	// postgres는 스스로 가격을 수집하지 않으므로 Yahoo에서 동기화
	if repo := a.provider.Repository; repo != nil {
		if err := repo.EnsureSchema(ctx); err != nil {
			cleanup()
			return nil, nil, err
		}
		source, err := external.NewYahoo(ctx, a.cfg, a.log)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, source.Close)

		syncJob := jobs.NewPriceSyncJob(source, repo, a.universe, "5d", a.cfg.Fetch.BatchSize, a.log)
		if err := sched.AddJob(syncJob); err != nil {
			cleanup()
			return nil, nil, err
		}
	}

	return sched, cleanup, nil
}

package scheduler

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/newsdesk/internal/interfaces"
)

func noopHandler() error { return nil }

func TestRegisterJob(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	if err := svc.RegisterJob("news_fetch", "0 0,4,8,12,16,20 * * *", "fetch news", noopHandler); err != nil {
		t.Fatalf("RegisterJob failed: %v", err)
	}

	status, err := svc.GetJobStatus("news_fetch")
	if err != nil {
		t.Fatalf("GetJobStatus failed: %v", err)
	}
	if !status.Enabled || status.Schedule != "0 0,4,8,12,16,20 * * *" {
		t.Errorf("status = %+v", status)
	}
}

func TestRegisterJobRejectsBadSchedule(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	if err := svc.RegisterJob("bad", "* * * * *", "every minute", noopHandler); err == nil {
		t.Error("expected error for every-minute schedule")
	}
	if err := svc.RegisterJob("bad", "not cron", "garbage", noopHandler); err == nil {
		t.Error("expected error for invalid schedule")
	}
}

func TestRegisterJobDuplicateName(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	if err := svc.RegisterJob("job", "0 * * * *", "first", noopHandler); err != nil {
		t.Fatal(err)
	}
	if err := svc.RegisterJob("job", "0 * * * *", "second", noopHandler); err == nil {
		t.Error("expected error for duplicate job name")
	}
}

func TestEnableDisableJob(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	if err := svc.RegisterJob("job", "0 * * * *", "test", noopHandler); err != nil {
		t.Fatal(err)
	}

	if err := svc.DisableJob("job"); err != nil {
		t.Fatalf("DisableJob failed: %v", err)
	}
	status, _ := svc.GetJobStatus("job")
	if status.Enabled {
		t.Error("job should be disabled")
	}

	if err := svc.EnableJob("job"); err != nil {
		t.Fatalf("EnableJob failed: %v", err)
	}
	status, _ = svc.GetJobStatus("job")
	if !status.Enabled {
		t.Error("job should be enabled")
	}
}

func TestJobNotFound(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	if err := svc.EnableJob("missing"); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Errorf("EnableJob error = %v", err)
	}
	if err := svc.DisableJob("missing"); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Errorf("DisableJob error = %v", err)
	}
	if err := svc.TriggerJob("missing"); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Errorf("TriggerJob error = %v", err)
	}
	if _, err := svc.GetJobStatus("missing"); !errors.Is(err, interfaces.ErrJobNotFound) {
		t.Errorf("GetJobStatus error = %v", err)
	}
}

func TestUpdateJobSchedule(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	if err := svc.RegisterJob("job", "0 * * * *", "test", noopHandler); err != nil {
		t.Fatal(err)
	}

	if err := svc.UpdateJobSchedule("job", "*/10 * * * *"); err != nil {
		t.Fatalf("UpdateJobSchedule failed: %v", err)
	}
	status, _ := svc.GetJobStatus("job")
	if status.Schedule != "*/10 * * * *" {
		t.Errorf("Schedule = %q", status.Schedule)
	}

	// Rejected update leaves the old schedule in place
	if err := svc.UpdateJobSchedule("job", "* * * * *"); err == nil {
		t.Error("expected error for every-minute schedule")
	}
	status, _ = svc.GetJobStatus("job")
	if status.Schedule != "*/10 * * * *" {
		t.Errorf("Schedule after rejected update = %q", status.Schedule)
	}
}

func TestTriggerJobRunsHandler(t *testing.T) {
	var runs atomic.Int32
	done := make(chan struct{})

	svc := NewService(nil, arbor.NewLogger())
	if err := svc.RegisterJob("job", "0 * * * *", "test", func() error {
		runs.Add(1)
		close(done)
		return nil
	}); err != nil {
		t.Fatal(err)
	}

	if err := svc.TriggerJob("job"); err != nil {
		t.Fatalf("TriggerJob failed: %v", err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("triggered job did not run")
	}
	if runs.Load() != 1 {
		t.Errorf("handler ran %d times", runs.Load())
	}
}

func TestTriggerJobRecordsFailure(t *testing.T) {
	done := make(chan struct{})

	svc := NewService(nil, arbor.NewLogger())
	if err := svc.RegisterJob("job", "0 * * * *", "test", func() error {
		defer close(done)
		return errors.New("handler blew up")
	}); err != nil {
		t.Fatal(err)
	}

	if err := svc.TriggerJob("job"); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("triggered job did not run")
	}

	// Give executeJob a moment to record completion after the handler returns
	deadline := time.Now().Add(2 * time.Second)
	for {
		status, err := svc.GetJobStatus("job")
		if err != nil {
			t.Fatal(err)
		}
		if status.LastError == "handler blew up" && status.LastRun != nil {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("job failure not recorded: %+v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNextRunOnUTCGrid(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	if err := svc.RegisterJob("news_fetch", "0 0,4,8,12,16,20 * * *", "fetch news", noopHandler); err != nil {
		t.Fatal(err)
	}
	if err := svc.Start(); err != nil {
		t.Fatal(err)
	}
	defer svc.Stop()

	status, err := svc.GetJobStatus("news_fetch")
	if err != nil {
		t.Fatalf("GetJobStatus failed: %v", err)
	}
	if status.NextRun == nil {
		t.Fatal("NextRun not set after start")
	}

	// The schedule must land on the fixed UTC hours regardless of the
	// server timezone; the daily fetch ledger keys on UTC days.
	next := status.NextRun.UTC()
	switch next.Hour() {
	case 0, 4, 8, 12, 16, 20:
	default:
		t.Errorf("next run at %v UTC, want hour in {0,4,8,12,16,20}", next)
	}
	if next.Minute() != 0 {
		t.Errorf("next run minute = %d, want 0", next.Minute())
	}
}

func TestIsRunningConcurrent(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			svc.IsRunning()
		}
	}()

	if err := svc.Start(); err != nil {
		t.Fatal(err)
	}
	<-done
	if err := svc.Stop(); err != nil {
		t.Fatal(err)
	}
}

func TestStartStop(t *testing.T) {
	svc := NewService(nil, arbor.NewLogger())

	if err := svc.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if !svc.IsRunning() {
		t.Error("scheduler should be running")
	}
	if err := svc.Start(); err == nil {
		t.Error("expected error starting twice")
	}

	if err := svc.Stop(); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	if svc.IsRunning() {
		t.Error("scheduler should be stopped")
	}
}

//go:build mage

// Package main contains Mage build targets for arxiv-digest developer tooling.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "arxiv-digest"
	cmdPkg  = "./cmd/arxiv-digest"

	taskFile = "arxiv_daily_task.xml"
)

// Build compiles the CLI binary into bin/.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	if err := sh.RunV("go", "build", "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests.
func Test() error {
	return sh.RunV("go", "test", "./...")
}

// Init writes the built-in keyword configuration to config.json unless one
// already exists.
func Init() error {
	mg.Deps(Build)
	if _, err := os.Stat("config.json"); err == nil {
		fmt.Println("config.json already exists; leaving it alone.")
		return nil
	}
	cfg, err := sh.Output(filepath.Join(binDir, binName), "default-config")
	if err != nil {
		return fmt.Errorf("default-config: %w", err)
	}
	if err := os.WriteFile("config.json", []byte(cfg+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing config.json: %w", err)
	}
	fmt.Println("Wrote config.json.")
	return nil
}

// Schedule prints a crontab line for a daily 02:00 run and writes a Windows
// Task Scheduler definition to arxiv_daily_task.xml.
func Schedule() error {
	mg.Deps(Build)
	wd, err := os.Getwd()
	if err != nil {
		return err
	}
	bin := filepath.Join(wd, binDir, binName)

	fmt.Println("crontab (crontab -e):")
	fmt.Printf("  0 2 * * * cd %s && %s >> %s 2>&1\n\n", wd, bin, filepath.Join(wd, "cron.log"))

	f, err := os.Create(taskFile)
	if err != nil {
		return fmt.Errorf("creating %s: %w", taskFile, err)
	}
	defer f.Close()
	if err := taskTemplate.Execute(f, struct{ Command, Dir string }{bin + ".exe", wd}); err != nil {
		return fmt.Errorf("writing %s: %w", taskFile, err)
	}

	fmt.Println("Windows Task Scheduler (elevated PowerShell):")
	fmt.Printf("  schtasks /Create /TN \"arXiv Digest\" /XML \"%s\" /F\n", filepath.Join(wd, taskFile))
	return nil
}

var taskTemplate = template.Must(template.New("task").Parse(`<?xml version="1.0" encoding="UTF-8"?>
<Task version="1.2" xmlns="http://schemas.microsoft.com/windows/2004/02/mit/task">
  <RegistrationInfo>
    <Author>arxiv-digest</Author>
    <Description>Fetch new arXiv papers daily</Description>
  </RegistrationInfo>
  <Triggers>
    <CalendarTrigger>
      <StartBoundary>2026-01-01T02:00:00</StartBoundary>
      <Enabled>true</Enabled>
      <ScheduleByDay>
        <DaysInterval>1</DaysInterval>
      </ScheduleByDay>
    </CalendarTrigger>
  </Triggers>
  <Principals>
    <Principal id="Author">
      <RunLevel>LeastPrivilege</RunLevel>
    </Principal>
  </Principals>
  <Settings>
    <MultipleInstancesPolicy>IgnoreNew</MultipleInstancesPolicy>
    <DisallowStartIfOnBatteries>false</DisallowStartIfOnBatteries>
    <StopIfGoingOnBatteries>false</StopIfGoingOnBatteries>
    <StartWhenAvailable>true</StartWhenAvailable>
    <RunOnlyIfNetworkAvailable>true</RunOnlyIfNetworkAvailable>
    <AllowStartOnDemand>true</AllowStartOnDemand>
    <Enabled>true</Enabled>
    <ExecutionTimeLimit>PT1H</ExecutionTimeLimit>
    <Priority>7</Priority>
  </Settings>
  <Actions Context="Author">
    <Exec>
      <Command>"{{.Command}}"</Command>
      <WorkingDirectory>{{.Dir}}</WorkingDirectory>
    </Exec>
  </Actions>
</Task>
`))

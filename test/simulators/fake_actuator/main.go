// Command fake_actuator speaks the actuator script contract without touching any
// process. Point the script backend at it to exercise the parser and the
// façade end to end:
//
//	backend: script
//	actuator:
//	  shell: ./fake_actuator
//	  script_path: state.json
//
// Suspended names are remembered in the state file named by the first
// positional argument. Output is prefixed with banner noise on purpose.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gofrs/flock"
	"github.com/shirou/gopsutil/v3/process"
)

type logEntry struct {
	Type    string `json:"Type"`
	Message string `json:"Message"`
}

type processItem struct {
	Name        string `json:"Name"`
	Id          int32  `json:"Id"`
	WindowTitle string `json:"WindowTitle"`
	IsSuspended bool   `json:"IsSuspended"`
}

type result struct {
	Success bool       `json:"Success"`
	Message string     `json:"Message,omitempty"`
	Kind    string     `json:"Kind,omitempty"`
	Data    any        `json:"Data,omitempty"`
	Logs    []logEntry `json:"Logs"`
}

func main() {
	statePath := filepath.Join(os.TempDir(), "quickresume-fake-actuator.json")
	args := os.Args[1:]
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		statePath = args[0]
		args = args[1:]
	}

	fs := flag.NewFlagSet("fake_actuator", flag.ContinueOnError)
	command := fs.String("Command", "", "Get-AppsStatus, Suspend-Process or Resume-Process")
	name := fs.String("ProcessName", "", "Target process name")
	if err := fs.Parse(args); err != nil {
		os.Exit(2)
	}

	fmt.Println("Windows PowerShell")
	fmt.Println("Copyright (C) Microsoft Corporation. All rights reserved.")
	fmt.Println()

	lock := flock.New(statePath + ".lock")
	if err := lock.Lock(); err != nil {
		emit(result{Success: false, Message: fmt.Sprintf("state lock: %v", err)})
		os.Exit(1)
	}
	defer lock.Unlock()

	suspended := loadState(statePath)
	logs := []logEntry{{Type: "Info", Message: fmt.Sprintf("command %s", *command)}}

	switch *command {
	case "Get-AppsStatus":
		items, err := listProcesses(suspended)
		if err != nil {
			emit(result{Success: false, Message: err.Error(), Logs: logs})
			return
		}
		emit(result{Success: true, Data: items, Logs: logs})

	case "Suspend-Process", "Resume-Process":
		if *name == "" {
			emit(result{Success: false, Message: "process name is required", Kind: "ValidationError", Logs: logs})
			return
		}
		target := normalize(*name)
		if !running(target) {
			emit(result{Success: false, Message: fmt.Sprintf("process %q not found", *name), Kind: "ProcessNotFound", Logs: logs})
			return
		}

		verb := "suspended"
		if *command == "Suspend-Process" {
			if !slices.Contains(suspended, target) {
				suspended = append(suspended, target)
			}
		} else {
			verb = "resumed"
			suspended = slices.DeleteFunc(suspended, func(s string) bool { return s == target })
		}
		if err := saveState(statePath, suspended); err != nil {
			logs = append(logs, logEntry{Type: "Warning", Message: err.Error()})
		}
		emit(result{Success: true, Message: fmt.Sprintf("%s %s", *name, verb), Logs: logs})

	default:
		emit(result{Success: false, Message: fmt.Sprintf("unknown command %q", *command), Kind: "ValidationError", Logs: logs})
	}
}

func emit(r result) {
	if r.Logs == nil {
		r.Logs = []logEntry{}
	}
	data, _ := json.MarshalIndent(r, "", "    ")
	fmt.Println(string(data))
}

func listProcesses(suspended []string) ([]processItem, error) {
	procs, err := process.Processes()
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	items := make([]processItem, 0, len(procs))
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		items = append(items, processItem{
			Name:        name,
			Id:          p.Pid,
			IsSuspended: slices.Contains(suspended, normalize(name)),
		})
	}
	return items, nil
}

func running(target string) bool {
	procs, err := process.Processes()
	if err != nil {
		return false
	}
	for _, p := range procs {
		if name, err := p.Name(); err == nil && normalize(name) == target {
			return true
		}
	}
	return false
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSuffix(name, ".exe"))
}

func loadState(path string) []string {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var names []string
	if json.Unmarshal(data, &names) != nil {
		return nil
	}
	return names
}

func saveState(path string, names []string) error {
	data, err := json.Marshal(names)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// internal/motion/command.go
package motion

import "sync"

// Step bounds enforced on accepted commands.
const (
	MinStep int32 = 1
	MaxStep int32 = 100000
)

// commandBox holds the current command behind a mutex. Writers are the
// API surfaces, the single reader is the cycle goroutine. Last write
// wins, there is no queue.
type commandBox struct {
	mu  sync.Mutex
	cmd Command
}

// Set replaces the command. Direction is reduced to its sign and Step
// is clamped into [MinStep, MaxStep]. Clamping is silent: bounds are
// enforced here so the cycle never sees an unsafe step, while request
// validation with errors belongs to the API layer.
func (b *commandBox) Set(run bool, direction int, step int32) Command {
	switch {
	case direction > 0:
		direction = 1
	case direction < 0:
		direction = -1
	}
	if step < MinStep {
		step = MinStep
	}
	if step > MaxStep {
		step = MaxStep
	}
	cmd := Command{Run: run, Direction: direction, Step: step}
	b.mu.Lock()
	b.cmd = cmd
	b.mu.Unlock()
	return cmd
}

// Stop clears the run flag and direction, keeping the step.
func (b *commandBox) Stop() Command {
	b.mu.Lock()
	b.cmd.Run = false
	b.cmd.Direction = 0
	cmd := b.cmd
	b.mu.Unlock()
	return cmd
}

func (b *commandBox) Load() Command {
	b.mu.Lock()
	cmd := b.cmd
	b.mu.Unlock()
	return cmd
}

// commandDelta is the per-cycle target increment for a command, capped
// at max regardless of what the command asks for.
func commandDelta(cmd Command, max int32) int32 {
	if !cmd.Run || cmd.Direction == 0 {
		return 0
	}
	step := cmd.Step
	if step > max {
		step = max
	}
	if step < 0 {
		step = 0
	}
	if cmd.Direction < 0 {
		return -step
	}
	return step
}

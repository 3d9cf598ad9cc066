package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"time"
)

// busy_worker prints a tick counter so a suspend shows up as a gap in the
// output and a resume as the counter picking up again.
func main() {
	interval := flag.Duration("interval", 500*time.Millisecond, "Time between ticks")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Println("╔════════════════════════════════════════════════════════════╗")
	fmt.Println("║              BUSY WORKER                                   ║")
	fmt.Println("║        target for quickresume suspend / resume             ║")
	fmt.Println("╚════════════════════════════════════════════════════════════╝")
	fmt.Printf("[*] PID: %d\n", os.Getpid())
	fmt.Printf("[*] Try: quickresume suspend %d\n\n", os.Getpid())

	every := *interval
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	last := time.Now()
	for tick := 1; ; tick++ {
		select {
		case <-ctx.Done():
			fmt.Println("\n[*] Stopped")
			return
		case now := <-ticker.C:
			gap := now.Sub(last)
			last = now
			if gap > 3*every {
				fmt.Printf("[!] tick %d after %v (was suspended?)\n", tick, gap.Round(time.Millisecond))
				continue
			}
			fmt.Printf("[+] tick %d\n", tick)
		}
	}
}

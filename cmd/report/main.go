// Command report summarizes the journal files: decision stages, order
// statuses, and realized paper PnL.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

type decisionLine struct {
	Stage string `json:"stage"`
}

type orderLine struct {
	Mode   string `json:"mode"`
	Status string `json:"status"`
}

type positionLine struct {
	Status      string  `json:"status"`
	RealizedPnL float64 `json:"realized_pnl"`
}

func main() {
	dir := flag.String("logs", "logs", "journal base directory")
	flag.Parse()
	if env := os.Getenv("LOGS_DIR"); env != "" && *dir == "logs" {
		*dir = env
	}

	stages := map[string]int{}
	for _, path := range globDay(*dir, "decisions") {
		eachLine(path, func(data []byte) {
			var d decisionLine
			if json.Unmarshal(data, &d) == nil && d.Stage != "" {
				stages[d.Stage]++
			}
		})
	}

	orders := map[string]int{}
	eachLine(filepath.Join(*dir, "orders.jsonl"), func(data []byte) {
		var o orderLine
		if json.Unmarshal(data, &o) == nil {
			orders[o.Mode+"/"+o.Status]++
		}
	})

	var opened, closed, wins int
	var pnl float64
	eachLine(filepath.Join(*dir, "positions.jsonl"), func(data []byte) {
		var p positionLine
		if json.Unmarshal(data, &p) != nil {
			return
		}
		switch p.Status {
		case "OPENED":
			opened++
		case "CLOSED":
			closed++
			pnl += p.RealizedPnL
			if p.RealizedPnL > 0 {
				wins++
			}
		}
	})

	fmt.Printf("Journal report (%s)\n\n", *dir)

	fmt.Println("Decisions:")
	printCounts(stages)

	fmt.Println("\nOrders (mode/status):")
	printCounts(orders)

	fmt.Printf("\nPositions: %d opened, %d closed\n", opened, closed)
	if closed > 0 {
		fmt.Printf("Realized PnL: %.2f (win rate %.1f%%)\n", pnl, 100*float64(wins)/float64(closed))
	}
}

func globDay(dir, sub string) []string {
	paths, _ := filepath.Glob(filepath.Join(dir, sub, "*.jsonl"))
	sort.Strings(paths)
	return paths
}

func eachLine(path string, fn func([]byte)) {
	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) > 0 {
			fn(sc.Bytes())
		}
	}
}

func printCounts(m map[string]int) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) == 0 {
		fmt.Println("  (none)")
		return
	}
	for _, k := range keys {
		fmt.Printf("  %-35s %d\n", k, m[k])
	}
}

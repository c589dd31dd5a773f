package place

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/sarchlab/annealplace/fpga"
)

// statusReport accumulates one row per temperature and renders the
// annealing progress table at the end of the run.
type statusReport struct {
	writer table.Writer
}

func newStatusReport() *statusReport {
	w := table.NewWriter()
	w.SetTitle("Annealing Progress")
	w.AppendHeader(table.Row{
		"Tnum", "Time (s)", "T", "Av Cost", "Av BB Cost", "Av TD Cost",
		"Ac Rate", "Std Dev", "R lim", "Crit Exp", "Tot Moves", "Alpha",
	})
	return &statusReport{writer: w}
}

func (r *statusReport) addRow(
	tempNum int,
	elapsed time.Duration,
	t, alpha float64,
	stats *placerStats,
	successRat, sd float64,
	rlim, critExponent float64,
	totMoves int,
) {
	r.writer.AppendRow(table.Row{
		tempNum,
		fmt.Sprintf("%6.1f", elapsed.Seconds()),
		fmt.Sprintf("%7.1e", t),
		fmt.Sprintf("%7.3f", stats.avCost),
		fmt.Sprintf("%10.2f", stats.avBBCost),
		fmt.Sprintf("%-10.5g", stats.avTimingCost),
		fmt.Sprintf("%7.3f", successRat),
		fmt.Sprintf("%7.4f", sd),
		fmt.Sprintf("%6.1f", rlim),
		fmt.Sprintf("%8.2f", critExponent),
		totMoves,
		fmt.Sprintf("%6.3f", alpha),
	})

	slog.Info("temperature done",
		"tempNum", tempNum,
		"t", t,
		"avCost", stats.avCost,
		"avBBCost", stats.avBBCost,
		"avTDCost", stats.avTimingCost,
		"acRate", successRat,
		"stdDev", sd,
		"rlim", rlim,
		"critExp", critExponent,
		"totMoves", totMoves,
		"alpha", alpha)
}

func (r *statusReport) render() string {
	return r.writer.Render() + "\n"
}

// renderResourceUtilization tabulates how many instances of each logical
// type ended up on each physical tile type.
func (p *Placer) renderResourceUtilization() string {
	counts := map[string]int{}
	for b := fpga.BlockID(0); int(b) < p.nlist.NumBlocks(); b++ {
		loc := p.blockLocs[b]
		lt := p.nlist.BlockType(b)
		pt := p.grid.Tile(loc.X, loc.Y).Type
		counts[lt.Name+"\x00"+pt.Name]++
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	w := table.NewWriter()
	w.SetTitle("Placement Resource Usage")
	w.AppendHeader(table.Row{"Logical Type", "Implemented As", "Instances"})
	for _, k := range keys {
		var lt, pt string
		for i := 0; i < len(k); i++ {
			if k[i] == 0 {
				lt, pt = k[:i], k[i+1:]
				break
			}
		}
		w.AppendRow(table.Row{lt, pt, counts[k]})
	}

	return w.Render() + "\n"
}

func (p *Placer) reportSwapStats(numTemps int) {
	total := p.numSwapAccepted + p.numSwapRejected + p.numSwapAborted
	if total == 0 {
		return
	}

	slog.Info("placement swap statistics",
		"temperatures", numTemps,
		"attempts", total,
		"accepted", p.numSwapAccepted,
		"acceptRate", float64(p.numSwapAccepted)/float64(total),
		"rejected", p.numSwapRejected,
		"rejectRate", float64(p.numSwapRejected)/float64(total),
		"aborted", p.numSwapAborted,
		"abortRate", float64(p.numSwapAborted)/float64(total))
}

// savePlacement writes a placement checkpoint: grid size header plus one
// row per block with its name and location.
func (p *Placer) savePlacement(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("place: saving placement: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	width, height := p.grid.Size()
	fmt.Fprintf(w, "Array size: %d x %d logic blocks\n\n", width, height)
	fmt.Fprintf(w, "#block name\tx\ty\tsubblk\tblock number\n")
	fmt.Fprintf(w, "#----------\t--\t--\t------\t------------\n")
	for b := fpga.BlockID(0); int(b) < p.nlist.NumBlocks(); b++ {
		loc := p.blockLocs[b]
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t#%d\n",
			p.nlist.BlockName(b), loc.X, loc.Y, loc.Subtile, b)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("place: saving placement: %w", err)
	}

	return nil
}

// moveStatsLog streams one CSV row per proposed move for offline analysis
// of move generator behavior.
type moveStatsLog struct {
	f *os.File
	w *bufio.Writer

	// Captured at proposal time, written with the outcome.
	temp      float64
	fromBlk   fpga.BlockID
	toBlk     fpga.BlockID
	fromType  string
	toType    string
	blkCount  int
	haveMoved bool
}

func newMoveStatsLog(filename string) (*moveStatsLog, error) {
	f, err := os.Create(filename)
	if err != nil {
		return nil, fmt.Errorf("place: opening move stats file: %w", err)
	}
	l := &moveStatsLog{f: f, w: bufio.NewWriter(f)}
	fmt.Fprintln(l.w,
		"temp,from_blk,to_blk,from_type,to_type,blk_count,"+
			"delta_cost,delta_bb_cost,delta_td_cost,outcome,reason")
	return l, nil
}

func (l *moveStatsLog) proposed(t float64, p *Placer, ba *BlocksAffected) {
	if l == nil {
		return
	}

	l.temp = t
	l.blkCount = len(ba.Moved)
	l.fromBlk, l.toBlk = -1, -1
	l.fromType, l.toType = "", ""
	l.haveMoved = l.blkCount > 0

	if !l.haveMoved {
		return
	}

	from := ba.Moved[0]
	l.fromBlk = from.Block
	l.fromType = p.nlist.BlockType(from.Block).Name
	if l.blkCount > 1 {
		to := ba.Moved[1]
		l.toBlk = to.Block
		l.toType = p.nlist.BlockType(to.Block).Name
	}
}

func (l *moveStatsLog) outcome(deltaC, bbDelta, tdDelta float64, outcome, reason string) {
	if l == nil {
		return
	}

	fmt.Fprintf(l.w, "%g,%d,%d,%s,%s,%d,%g,%g,%g,%s,%s\n",
		l.temp, l.fromBlk, l.toBlk, l.fromType, l.toType, l.blkCount,
		deltaC, bbDelta, tdDelta, outcome, reason)
}

func (l *moveStatsLog) close() {
	if l == nil {
		return
	}
	l.w.Flush()
	l.f.Close()
}

package backends

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/markkurossi/tabulate"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"qdeck/engine"
	"qdeck/ops"
)

// GateCount keys a gate by its text and number of controls.
type GateCount struct {
	Gate     string
	Controls int
}

// ResourceCounter tallies gates, the peak number of live qubits and the
// circuit depth. It forwards when it is not the terminal engine.
type ResourceCounter struct {
	engine.Base

	gates    map[GateCount]int
	classes  map[GateCount]int
	width    int
	maxWidth int
	depth    map[ops.QubitID]int
	maxDepth int

	gatesTotal *prometheus.CounterVec
	widthGauge prometheus.Gauge
}

func NewResourceCounter() *ResourceCounter {
	return &ResourceCounter{
		gates:   make(map[GateCount]int),
		classes: make(map[GateCount]int),
		depth:   make(map[ops.QubitID]int),
		gatesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qdeck",
			Name:      "gates_total",
			Help:      "Gates received by the resource counter, by gate class and control count.",
		}, []string{"gate", "controls"}),
		widthGauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "qdeck",
			Name:      "max_width",
			Help:      "Peak number of simultaneously allocated qubits.",
		}),
	}
}

// Register exports the counter's metrics.
func (r *ResourceCounter) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{r.gatesTotal, r.widthGauge} {
		if err := reg.Register(c); err != nil {
			return errors.Wrap(err, "register resource metrics")
		}
	}
	return nil
}

func (r *ResourceCounter) IsAvailable(cmd ops.Command) bool {
	if r.IsLast() {
		return true
	}
	return r.Base.IsAvailable(cmd)
}

func (r *ResourceCounter) Receive(cmds []ops.Command) error {
	for _, cmd := range cmds {
		r.count(cmd)
	}
	if r.IsLast() {
		reportMeasurements(r.Main(), cmds, false)
		return nil
	}
	return r.Send(cmds)
}

func (r *ResourceCounter) count(cmd ops.Command) {
	switch cmd.Gate.Kind() {
	case ops.KindFlush:
		return
	case ops.KindAllocate:
		r.width += len(cmd.Targets())
		r.maxWidth = max(r.maxWidth, r.width)
		r.widthGauge.Set(float64(r.maxWidth))
		return
	case ops.KindDeallocate:
		r.width -= len(cmd.Targets())
		return
	}

	n := len(cmd.Controls)
	r.gates[GateCount{cmd.Gate.String(), n}]++
	class := cmd.Gate.Kind().String()
	r.classes[GateCount{class, n}]++
	r.gatesTotal.WithLabelValues(class, strconv.Itoa(n)).Inc()

	d := 0
	for _, q := range cmd.AllQubits() {
		d = max(d, r.depth[q])
	}
	d++
	for _, q := range cmd.AllQubits() {
		r.depth[q] = d
	}
	r.maxDepth = max(r.maxDepth, d)
}

// GateCounts returns the tally keyed by gate text.
func (r *ResourceCounter) GateCounts() map[GateCount]int { return maps.Clone(r.gates) }

// ClassCounts returns the tally keyed by gate family.
func (r *ResourceCounter) ClassCounts() map[GateCount]int { return maps.Clone(r.classes) }

// MaxWidth returns the peak number of live qubits.
func (r *ResourceCounter) MaxWidth() int { return r.maxWidth }

// Depth returns the circuit depth seen so far.
func (r *ResourceCounter) Depth() int { return r.maxDepth }

// String renders the counts as tables followed by the width and depth.
func (r *ResourceCounter) String() string {
	var sb strings.Builder
	sb.WriteString("Gate class counts:\n")
	writeCounts(&sb, "Class", r.classes)
	sb.WriteString("\nGate counts:\n")
	writeCounts(&sb, "Gate", r.gates)
	fmt.Fprintf(&sb, "\nMax. width (number of qubits) : %d.\n", r.maxWidth)
	fmt.Fprintf(&sb, "Depth : %d.\n", r.maxDepth)
	return sb.String()
}

func writeCounts(sb *strings.Builder, title string, counts map[GateCount]int) {
	keys := slices.SortedFunc(maps.Keys(counts), func(a, b GateCount) int {
		if c := strings.Compare(a.Gate, b.Gate); c != 0 {
			return c
		}
		return a.Controls - b.Controls
	})
	tab := tabulate.New(tabulate.Unicode)
	tab.Header(title).SetAlign(tabulate.ML)
	tab.Header("Controls").SetAlign(tabulate.MR)
	tab.Header("Count").SetAlign(tabulate.MR)
	for _, k := range keys {
		row := tab.Row()
		row.Column(k.Gate)
		row.Column(strconv.Itoa(k.Controls))
		row.Column(strconv.Itoa(counts[k]))
	}
	tab.Print(sb)
}

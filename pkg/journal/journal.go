package journal

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aurisvision/monad-trading-bot-sub003/pkg/engine"
)

// tradeEntry is the on-disk shape of one journal file.
type tradeEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	Sequence       int       `json:"sequence"`
	TxID           string    `json:"tx_id"`
	UserID         string    `json:"user_id"`
	AssetAddress   string    `json:"asset_address"`
	Action         string    `json:"action"`
	Mode           string    `json:"mode"`
	AmountIn       float64   `json:"amount_in"`
	ExpectedOutput float64   `json:"expected_output"`
	PriceImpactPct float64   `json:"price_impact_pct"`
	SlippagePct    float64   `json:"slippage_pct"`
	PriorityFee    float64   `json:"priority_fee"`
}

// Writer persists trade records to a directory as JSON files, one file per
// trade. It backs the engine's best-effort audit trail.
type Writer struct {
	dir   string
	mu    sync.Mutex
	seq   int
	nowFn func() time.Time
}

var _ engine.TradeJournal = (*Writer)(nil)

// NewWriter constructs a journal writer.
func NewWriter(dir string) *Writer {
	if dir == "" {
		dir = "journal"
	}
	_ = os.MkdirAll(dir, 0o755)
	return &Writer{dir: dir, nowFn: time.Now}
}

// RecordTrade implements engine.TradeJournal by writing a timestamped JSON
// file.
func (w *Writer) RecordTrade(rec *engine.TransactionRecord) error {
	if rec == nil {
		return fmt.Errorf("journal: nil record")
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	w.seq++
	entry := tradeEntry{
		Timestamp:      rec.ExecutedAt,
		Sequence:       w.seq,
		TxID:           rec.TxID,
		UserID:         rec.UserID,
		AssetAddress:   rec.AssetAddress,
		Action:         string(rec.Action),
		Mode:           string(rec.Mode),
		AmountIn:       rec.AmountIn,
		ExpectedOutput: rec.ExpectedOutput,
		PriceImpactPct: rec.PriceImpactPct,
		SlippagePct:    rec.SlippagePct,
		PriorityFee:    rec.PriorityFee,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = w.nowFn()
	}

	name := fmt.Sprintf("trade_%s_%05d.json", entry.Timestamp.UTC().Format("20060102_150405"), w.seq)
	data, err := json.MarshalIndent(&entry, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(w.dir, name), data, 0o644)
}

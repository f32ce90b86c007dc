package repo

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRecord(symbol string, score int) SignalRecord {
	return SignalRecord{
		Timestamp:     time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Symbol:        symbol,
		Price:         "95000",
		Score:         score,
		Signals:       []string{"drop: close_to_close drop 6.00%"},
		EntryPrice:    "95000",
		TargetPrice:   "99560",
		TargetPercent: 4.8,
		StopPrice:     "92150",
		StopPercent:   3.0,
	}
}

func readRecords(t *testing.T, path string) []SignalRecord {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []SignalRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec SignalRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.NoError(t, scanner.Err())
	return records
}

func TestSignalLog_AppendPerSymbolFiles(t *testing.T) {
	dir := t.TempDir()
	log := NewSignalLog(dir)

	require.NoError(t, log.Append(testRecord("BTCUSDT", 5)))
	require.NoError(t, log.Append(testRecord("BTCUSDT", 7)))
	require.NoError(t, log.Append(testRecord("ETHUSDT", 3)))

	btc := readRecords(t, filepath.Join(dir, "signals_btcusdt.jsonl"))
	require.Len(t, btc, 2)
	assert.Equal(t, 5, btc[0].Score)
	assert.Equal(t, 7, btc[1].Score)

	eth := readRecords(t, filepath.Join(dir, "signals_ethusdt.jsonl"))
	require.Len(t, eth, 1)
	assert.Equal(t, "ETHUSDT", eth[0].Symbol)
}

func TestSignalLog_ConcurrentAppends(t *testing.T) {
	dir := t.TempDir()
	log := NewSignalLog(dir)

	const writers = 8
	const perWriter = 20

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.NoError(t, log.Append(testRecord("BTCUSDT", i)))
			}
		}()
	}
	wg.Wait()

	records := readRecords(t, filepath.Join(dir, "signals_btcusdt.jsonl"))
	assert.Len(t, records, writers*perWriter)
}

package orders

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"tg_auction/internal/domain/entity"
)

const counterFileName = "counter.txt"

// Store hands out order numbers and persists order records as plain files in
// the orders directory. The counter is scoped per year+month: the prefix
// changes monthly and the running counter resets with it. Single writer by
// contract: only the side-effect pipeline calls it.
type Store struct {
	dir string
}

func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return &Store{dir: dir}, nil
}

// NextOrderNumber returns the next "AUC-YYYY-MM-NNNN" number and advances the
// persisted counter. A month rollover starts the counter from 1 again.
func (s *Store) NextOrderNumber(now time.Time) (string, error) {
	prefix := fmt.Sprintf("AUC-%d-%02d-", now.Year(), int(now.Month()))

	scope, counter, err := s.readCounter()
	if err != nil {
		return "", err
	}

	if scope != prefix {
		counter = 0
	}
	counter++

	if err := s.writeCounter(prefix, counter); err != nil {
		return "", err
	}

	return prefix + fmt.Sprintf("%04d", counter), nil
}

func (s *Store) SaveOrder(o entity.Order) error {
	record := fmt.Sprintf(
		"Buyer: %s\nLot: %s (%s)\nPrice: %s\nOrder number: %s\nCreated: %s\n",
		o.Buyer.DisplayName(),
		o.LotName,
		o.LotNumber,
		o.Price.StringFixed(2),
		o.Number,
		o.CreatedAt.UTC().Format(time.RFC3339),
	)

	path := filepath.Join(s.dir, "order_"+o.Number+".txt")
	if err := os.WriteFile(path, []byte(record), 0o644); err != nil {
		return fmt.Errorf("write order record: %w", err)
	}

	return nil
}

// readCounter parses "<scope> <n>" from the counter file; a legacy bare
// number is treated as belonging to no scope and therefore resets.
func (s *Store) readCounter() (string, int, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, counterFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return "", 0, nil
	}
	if err != nil {
		return "", 0, fmt.Errorf("read counter: %w", err)
	}

	fields := strings.Fields(string(data))
	if len(fields) != 2 {
		return "", 0, nil
	}

	counter, err := strconv.Atoi(fields[1])
	if err != nil {
		return "", 0, nil
	}

	return fields[0], counter, nil
}

func (s *Store) writeCounter(scope string, counter int) error {
	content := fmt.Sprintf("%s %d\n", scope, counter)
	if err := os.WriteFile(filepath.Join(s.dir, counterFileName), []byte(content), 0o644); err != nil {
		return fmt.Errorf("write counter: %w", err)
	}
	return nil
}

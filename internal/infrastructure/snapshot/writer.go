package snapshot

import (
	"context"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"sync"

	jsoniter "github.com/json-iterator/go"

	service "tg_auction/internal/domain/service/auction"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary //nolint:gochecknoglobals

const (
	jsonFileName = "current_auction.json"
	htmlFileName = "current_auction.html"
)

// Writer persists the auction read model as JSON (consumed by the overlay
// server) and as a rendered HTML fragment (consumed directly by OBS-style
// browser sources). Writes overwrite the previous snapshot; the last written
// snapshot is also kept in memory for the overlay endpoint.
type Writer struct {
	dir string

	mu   sync.RWMutex
	last *service.Snapshot
}

func NewWriter(dir string) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}

	return &Writer{dir: dir}, nil
}

func (w *Writer) Write(_ context.Context, s service.Snapshot) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(filepath.Join(w.dir, jsonFileName), data, 0o644); err != nil {
		return fmt.Errorf("write json snapshot: %w", err)
	}

	if err := w.writeHTML(s); err != nil {
		return fmt.Errorf("write html snapshot: %w", err)
	}

	w.mu.Lock()
	w.last = &s
	w.mu.Unlock()

	return nil
}

// Last returns the most recently written snapshot, nil before the first write.
func (w *Writer) Last() *service.Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.last
}

func (w *Writer) writeHTML(s service.Snapshot) error {
	f, err := os.Create(filepath.Join(w.dir, htmlFileName))
	if err != nil {
		return err
	}
	defer f.Close()

	return htmlTemplate.Execute(f, htmlData{Snapshot: s})
}

type htmlData struct {
	Snapshot service.Snapshot
}

//nolint:gochecknoglobals
var htmlTemplate = template.Must(template.New("auction").Parse(`<div class="auction">
  <h1>{{.Snapshot.Name}} ({{.Snapshot.LotNumber}})</h1>
  <p class="description">{{.Snapshot.Description}}</p>
  <p class="price">{{.Snapshot.FinalPrice.StringFixed 2}} PLN</p>
  {{- if .Snapshot.Leader}}
  <p class="leader">{{.Snapshot.Leader}}</p>
  {{- end}}
  <ul class="history">
  {{- range $i, $b := .Snapshot.History}}
    <li{{if eq $i 0}} style="font-weight:bold;"{{end}}><span class="user">{{$b.Bidder}}</span> - <span class="price">{{$b.Price.StringFixed 2}} PLN</span></li>
  {{- end}}
  </ul>
  {{- if .Snapshot.Image}}
  <img src="{{.Snapshot.Image}}" alt="lot image"/>
  {{- end}}
  {{- if .Snapshot.NextName}}
  <p class="next">{{.Snapshot.NextName}} ({{.Snapshot.NextLotNumber}})</p>
  {{- end}}
</div>
`))

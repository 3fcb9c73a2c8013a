package digestfile

import (
	"log"
	"sort"
	"strings"
	"sync"
	"time"
)

const webhookUserID = "webhook"

type StoreOptions struct {
	// OutputDir is the root under which per-project digest directories live.
	OutputDir string
	// DefaultProjectID receives events that arrive without a project mapping.
	DefaultProjectID string
	// Watermarks overrides the default per-project JSON file store under
	// OutputDir.
	Watermarks WatermarkStore
	// Adapters registered for webhook normalization. Defaults to the linear
	// adapter when nil.
	Adapters []SourceAdapter
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Store owns the event buffer, the adapter registry, the watermark store and
// the digest writer, and coordinates ingestion and flushing.
type Store struct {
	buffer     *Buffer
	registry   *Registry
	watermarks WatermarkStore
	digests    *DigestWriter

	defaultProjectID string
	now              func() time.Time

	// flushMu serializes Flush invocations; the buffer has its own lock so
	// appends never wait on flush I/O.
	flushMu sync.Mutex

	subMu       sync.Mutex
	subscribers map[int]chan Event
	nextSubID   int
}

func NewStore(outputDir string) *Store {
	return NewStoreWithOptions(StoreOptions{OutputDir: outputDir})
}

func NewStoreWithOptions(opts StoreOptions) *Store {
	if strings.TrimSpace(opts.OutputDir) == "" {
		opts.OutputDir = "notebooklm_output"
	}
	if strings.TrimSpace(opts.DefaultProjectID) == "" {
		opts.DefaultProjectID = "default-project"
	}
	if opts.Watermarks == nil {
		opts.Watermarks = NewDirWatermarkStore(opts.OutputDir)
	}
	if opts.Adapters == nil {
		opts.Adapters = []SourceAdapter{LinearAdapter{}}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		buffer:           NewBuffer(),
		registry:         NewRegistry(opts.Adapters...),
		watermarks:       opts.Watermarks,
		digests:          NewDigestWriter(opts.OutputDir),
		defaultProjectID: opts.DefaultProjectID,
		now:              opts.Now,
		subscribers:      map[int]chan Event{},
	}
}

func (s *Store) BufferLen() int {
	return s.buffer.Len()
}

// IngestEvent buffers a directly submitted event. A missing timestamp gets
// the current wall-clock time and a missing projectId falls back to the
// default project; nothing else is touched.
func (s *Store) IngestEvent(event Event) Event {
	if event.Timestamp == 0 {
		event.Timestamp = s.now().UnixMilli()
	}
	if strings.TrimSpace(event.ProjectID) == "" {
		event.ProjectID = s.defaultProjectID
	}
	s.buffer.Append(event)
	s.notify(event)
	return event
}

// IngestWebhook normalizes a raw webhook payload through the adapter
// registered for source and buffers the result. accepted=false with a nil
// error means the adapter recognized the payload and chose to ignore it.
func (s *Store) IngestWebhook(source string, payload map[string]any) (accepted bool, err error) {
	event, err := s.registry.Normalize(source, payload)
	if err != nil {
		return false, err
	}
	if event == nil {
		return false, nil
	}
	enriched := *event
	if enriched.Timestamp == 0 {
		enriched.Timestamp = s.now().UnixMilli()
	}
	if strings.TrimSpace(enriched.ProjectID) == "" {
		enriched.ProjectID = s.defaultProjectID
	}
	if strings.TrimSpace(enriched.UserID) == "" {
		enriched.UserID = webhookUserID
	}
	s.buffer.Append(enriched)
	s.notify(enriched)
	return true, nil
}

// Flush turns buffered events into digest appends and advances watermarks.
// At most one flush runs at a time. Failures are per-project: a project whose
// digest or watermark write fails stays buffered for a later flush while the
// remaining projects complete. Returns the flushed project IDs in no
// particular order.
func (s *Store) Flush() []string {
	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	snapshot, snapshotLen := s.buffer.Snapshot()
	grouped := map[string][]Event{}
	for _, event := range snapshot {
		grouped[event.ProjectID] = append(grouped[event.ProjectID], event)
	}

	day := s.now()
	flushed := map[string]bool{}
	for projectID, group := range grouped {
		watermark, found, err := s.watermarks.Load(projectID)
		if err != nil {
			log.Printf("watermark load failed for %s, treating as never flushed: %v", projectID, err)
			watermark = 0
		} else if !found {
			watermark = 0
		}

		batch := make([]Event, 0, len(group))
		for _, event := range group {
			if event.Timestamp > watermark {
				batch = append(batch, event)
			}
		}
		if len(batch) == 0 {
			// Everything at or below the watermark: the project is skipped
			// and its events stay buffered. Intentional, see DESIGN.md.
			continue
		}
		sort.SliceStable(batch, func(i, j int) bool {
			return batch[i].Timestamp < batch[j].Timestamp
		})

		if err := s.digests.Append(projectID, day, batch); err != nil {
			log.Printf("digest append failed for %s: %v", projectID, err)
			continue
		}
		if err := s.watermarks.Save(projectID, batch[len(batch)-1].Timestamp); err != nil {
			log.Printf("watermark save failed for %s: %v", projectID, err)
			continue
		}
		flushed[projectID] = true
	}

	s.buffer.Drain(flushed, snapshotLen)

	projects := make([]string, 0, len(flushed))
	for projectID := range flushed {
		projects = append(projects, projectID)
	}
	return projects
}

// Subscribe registers a live event feed. The returned cancel func must be
// called to release the subscription. Slow consumers lose events instead of
// blocking ingestion.
func (s *Store) Subscribe() (<-chan Event, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Event, 16)
	s.subscribers[id] = ch
	cancel := func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		if existing, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(existing)
		}
	}
	return ch, cancel
}

func (s *Store) notify(event Event) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}

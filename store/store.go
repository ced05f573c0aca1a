package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/egaotan/honorary-quote-fee/chain"
)

type Saver interface {
	Save(record interface{}) error
}

// Store persists committed distributor events off the transaction path.
type Store struct {
	ctx     context.Context
	log     *slog.Logger
	records chan interface{}
	saver   Saver
	wg      sync.WaitGroup
}

func NewStore(ctx context.Context, saver Saver, log *slog.Logger) *Store {
	return &Store{
		ctx:     ctx,
		log:     log,
		records: make(chan interface{}, 32),
		saver:   saver,
	}
}

func (s *Store) Start() {
	s.wg.Add(1)
	go s.store()
}

// Stop waits until the records queued before the context ended are saved.
func (s *Store) Stop() {
	s.wg.Wait()
}

func (s *Store) store() {
	defer s.wg.Done()
	for {
		select {
		case record := <-s.records:
			s.save(record)
		case <-s.ctx.Done():
			for {
				select {
				case record := <-s.records:
					s.save(record)
				default:
					return
				}
			}
		}
	}
}

func (s *Store) save(record interface{}) {
	if err := s.saver.Save(record); err != nil {
		s.log.Error("save record", "record", record, "error", err)
	}
}

func (s *Store) OnEvent(event chain.Event) {
	record, ok, err := NewRecord(event)
	if !ok {
		return
	}
	if err != nil {
		s.log.Error("convert event", "payload", event.Payload, "error", err)
		return
	}
	if s.ctx.Err() != nil {
		s.log.Warn("store stopped, record dropped", "record", record)
		return
	}
	select {
	case s.records <- record:
	case <-s.ctx.Done():
		s.log.Warn("store stopped, record dropped", "record", record)
	}
}

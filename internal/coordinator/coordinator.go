// Package coordinator routes inbound requests through the command factory
// and fans resulting notifications out to the attached transport adapters.
// It also drives the story collaborator whenever a DM turn opens.
package coordinator

import (
	"context"
	stderrors "errors"
	"log"
	"sync"
	"time"

	"github.com/fableroom/fableroom/internal/adapter"
	"github.com/fableroom/fableroom/internal/command"
	"github.com/fableroom/fableroom/internal/event"
	"github.com/fableroom/fableroom/internal/narration"
	"github.com/fableroom/fableroom/internal/observe"
	"github.com/fableroom/fableroom/internal/platform/errors"
	"github.com/fableroom/fableroom/internal/service"
)

// Config bounds the collaborator calls made for DM turns.
type Config struct {
	// NarrationTimeout limits each collaborator attempt.
	NarrationTimeout time.Duration
	// NarrationRetries is the number of retries after the first attempt.
	NarrationRetries int
}

// Coordinator serializes command execution and delivery per room so every
// client observes notifications in the order the engine produced them.
type Coordinator struct {
	factory *command.Factory
	svc     *service.Set
	collab  narration.Collaborator
	cfg     Config
	metrics *observe.Metrics

	mu       sync.Mutex
	rooms    map[string]*sync.Mutex
	adapters []adapter.Adapter

	wg sync.WaitGroup
}

// New wires a coordinator and subscribes it to the DM turn trigger on the
// bus. Metrics may be nil.
func New(factory *command.Factory, svc *service.Set, bus *event.Bus, collab narration.Collaborator, cfg Config, metrics *observe.Metrics) *Coordinator {
	c := &Coordinator{
		factory: factory,
		svc:     svc,
		collab:  collab,
		cfg:     cfg,
		metrics: metrics,
		rooms:   make(map[string]*sync.Mutex),
	}
	bus.Subscribe(event.TypeTurnStarted, func(e event.Event) {
		if e.TurnType != "DM" {
			return
		}
		c.wg.Add(1)
		go c.narrate(e.RoomID)
	})
	bus.Subscribe(event.TypeRoomDeleted, func(e event.Event) {
		c.mu.Lock()
		delete(c.rooms, e.RoomID)
		c.mu.Unlock()
	})
	return c
}

// Attach registers a transport adapter for outbound delivery.
func (c *Coordinator) Attach(a adapter.Adapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.adapters = append(c.adapters, a)
}

// Wait blocks until in-flight narration work has drained. Call during
// shutdown after the transports stop accepting requests.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Dispatch resolves and executes one inbound request and delivers the
// resulting notifications. Requests touching the same room are handled one
// at a time; an unrecognized or malformed request still produces a direct
// explanation to the actor.
func (c *Coordinator) Dispatch(ctx context.Context, in adapter.Inbound) command.Result {
	lock := c.roomLock(in.RoomID)
	lock.Lock()
	defer lock.Unlock()

	cmd, rej := c.factory.Resolve(in)
	if rej != nil {
		res := command.Result{
			Payload: rej,
			Notifications: []service.Notification{{
				RoomID:    in.RoomID,
				Kind:      service.NoticeSystem,
				Recipient: in.ActorID,
				Content:   rej.Message,
			}},
		}
		c.finish(ctx, in, res, nil)
		return res
	}

	res, err := cmd.Execute(c.svc)
	if err != nil {
		log.Printf("coordinator: %s from %s (room %s) failed [%s]: %v", in.Kind, in.ActorID, in.RoomID, errors.CodeOf(err), err)
		res = command.Result{Notifications: []service.Notification{{
			RoomID:    in.RoomID,
			Kind:      service.NoticeSystem,
			Recipient: in.ActorID,
			Content:   "something went wrong, please try again",
		}}}
	}
	c.finish(ctx, in, res, err)
	return res
}

// finish records metrics and fans the result out to the adapters.
func (c *Coordinator) finish(ctx context.Context, in adapter.Inbound, res command.Result, err error) {
	if c.metrics != nil {
		status := "ok"
		switch {
		case err != nil:
			status = "error"
		case !res.OK:
			status = "rejected"
		}
		c.metrics.RecordCommand(ctx, in.Kind, status)
	}
	c.deliver(res.Notifications)
	if res.OK && res.Payload != nil && in.ActorID != "" {
		c.deliverOne(adapter.Outbound{
			RoomID:    in.RoomID,
			Type:      "result",
			Recipient: in.ActorID,
			Payload:   res.Payload,
		})
	}
}

func (c *Coordinator) deliver(notes []service.Notification) {
	for _, n := range notes {
		c.deliverOne(adapter.Outbound{
			RoomID:    n.RoomID,
			Type:      n.Kind,
			Sender:    n.Sender,
			Recipient: n.Recipient,
			Content:   n.Content,
		})
	}
}

func (c *Coordinator) deliverOne(out adapter.Outbound) {
	c.mu.Lock()
	adapters := append([]adapter.Adapter(nil), c.adapters...)
	c.mu.Unlock()
	for _, a := range adapters {
		a.Deliver(out)
	}
}

// roomLock returns the dispatch mutex for a room. Requests without a room
// id share a single lock.
func (c *Coordinator) roomLock(roomID string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	lock, ok := c.rooms[roomID]
	if !ok {
		lock = &sync.Mutex{}
		c.rooms[roomID] = lock
	}
	return lock
}

// narrate asks the collaborator to resolve the room's open DM turn. The
// collaborator call happens outside the room lock; only the resulting
// dm_narration command re-enters it. When the retry budget is spent the
// fallback response keeps the story moving.
func (c *Coordinator) narrate(roomID string) {
	defer c.wg.Done()

	req, err := c.svc.Turns.NarrationRequest(roomID)
	if err != nil {
		log.Printf("coordinator: narration request for room %s: %v", roomID, err)
		return
	}

	resp, err := c.callCollaborator(req)
	if err != nil {
		log.Printf("coordinator: collaborator failed for room %s, using fallback: %v", roomID, err)
		resp = narration.Fallback(aliveIDs(req.Roster))
	}

	c.Dispatch(context.Background(), adapter.Inbound{
		Kind:    string(command.KindDMNarration),
		RoomID:  roomID,
		Payload: map[string]any{"response": resp},
	})
}

// callCollaborator runs the collaborator with a per-attempt timeout until
// it succeeds or the retry budget is spent.
func (c *Coordinator) callCollaborator(req narration.Request) (narration.Response, error) {
	attempts := c.cfg.NarrationRetries + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), c.cfg.NarrationTimeout)
		resp, err := c.collab.Narrate(ctx, req)
		cancel()
		if err == nil {
			if c.metrics != nil {
				c.metrics.RecordNarration(context.Background(), "ok")
			}
			return resp, nil
		}
		if stderrors.Is(err, context.DeadlineExceeded) {
			err = errors.Wrap(errors.CodeNarrationTimeout, "narration attempt timed out", err)
		}
		lastErr = err
	}
	if c.metrics != nil {
		c.metrics.RecordNarration(context.Background(), "failed")
	}
	return narration.Response{}, lastErr
}

func aliveIDs(roster []narration.RosterEntry) []string {
	var ids []string
	for _, r := range roster {
		if r.Alive {
			ids = append(ids, r.PlayerID)
		}
	}
	return ids
}

package neo4j

import (
	"context"
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// pooledSession is one checkout unit of the session pool. The snowflake id
// identifies the session in logs across acquire/release cycles.
type pooledSession struct {
	id   int64
	sess neo4j.SessionWithContext
}

// sessionPool bounds how many driver sessions the client hands out at
// once. Sessions are pre-warmed at construction; acquire pops an idle one,
// opens a fresh one while under the cap, or blocks until a release or the
// context expires. Sessions are not safe for concurrent use, so a session
// belongs to exactly one caller between acquire and release.
type sessionPool struct {
	driver   neo4j.DriverWithContext
	database string
	node     *snowflake.Node
	logger   *zap.Logger

	idle chan *pooledSession

	mu     sync.Mutex
	opened int
	size   int
	closed bool
}

// newSessionPool creates a pool of up to size sessions, all pre-warmed.
// Session handles are lazy in the driver, so pre-warming cannot fail.
func newSessionPool(driver neo4j.DriverWithContext, database string, size int, node *snowflake.Node, logger *zap.Logger) *sessionPool {
	pool := &sessionPool{
		driver:   driver,
		database: database,
		node:     node,
		logger:   logger,
		idle:     make(chan *pooledSession, size),
		size:     size,
	}
	for i := 0; i < size; i++ {
		pool.idle <- pool.open()
	}
	pool.opened = size
	return pool
}

// open creates one session handle with a fresh pool id.
func (p *sessionPool) open() *pooledSession {
	return &pooledSession{
		id: p.node.Generate().Int64(),
		sess: p.driver.NewSession(context.Background(), neo4j.SessionConfig{
			DatabaseName: p.database,
		}),
	}
}

// acquire checks out a session, waiting for one to be released if all are
// out. The wait is bounded by the context.
func (p *sessionPool) acquire(ctx context.Context) (*pooledSession, error) {
	select {
	case ps := <-p.idle:
		return ps, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("session pool is closed")
	}
	if p.opened < p.size {
		p.opened++
		ps := p.open()
		p.mu.Unlock()
		return ps, nil
	}
	p.mu.Unlock()

	select {
	case ps := <-p.idle:
		return ps, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("session pool exhausted: %w", ctx.Err())
	}
}

// release returns a session to the pool, or closes it if the pool is
// closed or has no room for it.
func (p *sessionPool) release(ps *pooledSession) {
	if ps == nil {
		return
	}

	p.mu.Lock()
	if !p.closed {
		select {
		case p.idle <- ps:
			p.mu.Unlock()
			return
		default:
		}
	}
	p.opened--
	p.mu.Unlock()

	if err := ps.sess.Close(context.Background()); err != nil {
		p.logger.Warn("failed to close surplus session",
			zap.Int64("session_id", ps.id), zap.Error(err))
	}
}

// close drains and closes all idle sessions. Sessions still checked out are
// closed by their release after the pool refuses them.
func (p *sessionPool) close(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	p.mu.Unlock()

	var firstErr error
	for {
		select {
		case ps := <-p.idle:
			p.mu.Lock()
			p.opened--
			p.mu.Unlock()
			if err := ps.sess.Close(ctx); err != nil && firstErr == nil {
				firstErr = err
			}
		default:
			return firstErr
		}
	}
}

package inference

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// Request is one queued inference request.
type Request struct {
	ID       string
	Prompt   string
	Callback func(*Result)
	Context  context.Context
}

// Pool multiplexes inference requests from concurrent user sessions onto a
// bounded number of in-flight model calls.
type Pool struct {
	client    *Client
	workers   int
	queue     chan *Request
	wg        sync.WaitGroup
	ctx       context.Context
	cancel    context.CancelFunc
	semaphore chan struct{}
	metrics   *PoolMetrics
}

// PoolMetrics tracks pool performance.
type PoolMetrics struct {
	TotalRequests   int64
	CompletedOK     int64
	CompletedError  int64
	AverageLatency  time.Duration
	TotalLatency    time.Duration
	CurrentInflight int
	mu              sync.RWMutex
}

// PoolConfig holds pool configuration.
type PoolConfig struct {
	Workers         int
	QueueSize       int
	MaxConcurrent   int
	InferenceConfig *Config
}

// DefaultPoolConfig returns default pool configuration.
func DefaultPoolConfig() *PoolConfig {
	return &PoolConfig{
		Workers:         runtime.NumCPU(),
		QueueSize:       256,
		MaxConcurrent:   4, // Match typical Ollama defaults
		InferenceConfig: DefaultConfig(),
	}
}

// NewPool creates a pool and starts its workers.
func NewPool(config *PoolConfig) *Pool {
	if config == nil {
		config = DefaultPoolConfig()
	}

	ctx, cancel := context.WithCancel(context.Background())
	pool := &Pool{
		client:    NewClient(config.InferenceConfig),
		workers:   config.Workers,
		queue:     make(chan *Request, config.QueueSize),
		ctx:       ctx,
		cancel:    cancel,
		semaphore: make(chan struct{}, config.MaxConcurrent),
		metrics:   &PoolMetrics{},
	}

	for i := 0; i < pool.workers; i++ {
		pool.wg.Add(1)
		go pool.worker()
	}
	return pool
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case req, ok := <-p.queue:
			if !ok {
				return
			}
			p.processRequest(req)
		}
	}
}

func (p *Pool) processRequest(req *Request) {
	select {
	case p.semaphore <- struct{}{}:
		defer func() { <-p.semaphore }()
	case <-req.Context.Done():
		if req.Callback != nil {
			req.Callback(&Result{Error: req.Context.Err()})
		}
		return
	}

	p.metrics.mu.Lock()
	p.metrics.CurrentInflight++
	p.metrics.mu.Unlock()
	defer func() {
		p.metrics.mu.Lock()
		p.metrics.CurrentInflight--
		p.metrics.mu.Unlock()
	}()

	startTime := time.Now()
	result, err := p.client.GenerateSync(req.Context, req.Prompt)
	latency := time.Since(startTime)

	if result == nil {
		result = &Result{}
	}
	if err != nil {
		result.Error = err
	}
	result.Latency = latency

	p.updateMetrics(latency, err == nil)

	if req.Callback != nil {
		req.Callback(result)
	}
}

func (p *Pool) updateMetrics(latency time.Duration, success bool) {
	p.metrics.mu.Lock()
	defer p.metrics.mu.Unlock()

	p.metrics.TotalRequests++
	if success {
		p.metrics.CompletedOK++
	} else {
		p.metrics.CompletedError++
	}
	p.metrics.TotalLatency += latency
	if p.metrics.CompletedOK > 0 {
		p.metrics.AverageLatency = p.metrics.TotalLatency / time.Duration(p.metrics.CompletedOK)
	}
}

// Submit enqueues a request without waiting.
func (p *Pool) Submit(req *Request) error {
	if req.Context == nil {
		req.Context = p.ctx
	}
	select {
	case p.queue <- req:
		return nil
	case <-req.Context.Done():
		return req.Context.Err()
	default:
		return fmt.Errorf("queue full")
	}
}

// SubmitSync enqueues a request and waits for its result.
func (p *Pool) SubmitSync(ctx context.Context, prompt string) (*Result, error) {
	resultChan := make(chan *Result, 1)
	req := &Request{
		ID:      fmt.Sprintf("sync-%d", time.Now().UnixNano()),
		Prompt:  prompt,
		Context: ctx,
		Callback: func(result *Result) {
			resultChan <- result
		},
	}
	if err := p.Submit(req); err != nil {
		return nil, err
	}

	select {
	case result := <-resultChan:
		return result, result.Error
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Text is the narrow text-in, text-out contract the agents consume, so the
// pool can stand in for a bare client.
func (p *Pool) Text(ctx context.Context, prompt string) (string, error) {
	result, err := p.SubmitSync(ctx, prompt)
	if err != nil {
		return "", err
	}
	return result.Response, nil
}

// GetMetrics returns a snapshot of pool metrics.
func (p *Pool) GetMetrics() PoolMetrics {
	p.metrics.mu.RLock()
	defer p.metrics.mu.RUnlock()
	return PoolMetrics{
		TotalRequests:   p.metrics.TotalRequests,
		CompletedOK:     p.metrics.CompletedOK,
		CompletedError:  p.metrics.CompletedError,
		AverageLatency:  p.metrics.AverageLatency,
		TotalLatency:    p.metrics.TotalLatency,
		CurrentInflight: p.metrics.CurrentInflight,
	}
}

// Shutdown stops accepting requests and waits for workers to drain.
func (p *Pool) Shutdown(timeout time.Duration) error {
	close(p.queue)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		return fmt.Errorf("shutdown timeout exceeded")
	}
}

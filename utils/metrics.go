package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики расчетного контура
type Metrics struct {
	mu sync.RWMutex

	// Метрики планировщика
	TotalSweeps      int64
	ProcessedPending int64
	LastSweepTime    time.Time

	// Метрики транзакций
	CompletedTransactions int64
	FailedTransactions    int64
	RetriedTransactions   int64
	ExpiredTransactions   int64

	// Метрики возвратов
	RefundsIssued  int64
	RefundFailures int64

	// Метрики реестра банков
	RegistryRefreshes       int64
	RegistryRefreshFailures int64
	LastRegistryRefresh     time.Time

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ErrorTypes: make(map[string]int64),
		}
	})
	return metrics
}

// RecordSweep записывает метрики одного прохода планировщика
func (m *Metrics) RecordSweep(processed int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalSweeps++
	m.ProcessedPending += int64(processed)
	m.LastSweepTime = time.Now()
}

// RecordSettlement записывает исход обработки одной транзакции
func (m *Metrics) RecordSettlement(outcome string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch outcome {
	case "completed":
		m.CompletedTransactions++
	case "failed":
		m.FailedTransactions++
	case "retried":
		m.RetriedTransactions++
	case "expired":
		m.ExpiredTransactions++
	}
}

// RecordRefund записывает метрики компенсационного возврата
func (m *Metrics) RecordRefund(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.RefundFailures++
		m.recordErrorLocked(err)
		return
	}
	m.RefundsIssued++
}

// RecordRegistryRefresh записывает метрики обновления реестра банков
func (m *Metrics) RecordRegistryRefresh(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err != nil {
		m.RegistryRefreshFailures++
		m.recordErrorLocked(err)
		return
	}
	m.RegistryRefreshes++
	m.LastRegistryRefresh = time.Now()
}

// RecordError записывает метрики ошибки
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordErrorLocked(err)
}

func (m *Metrics) recordErrorLocked(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}

	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"total_sweeps":              m.TotalSweeps,
		"processed_pending":         m.ProcessedPending,
		"completed_transactions":    m.CompletedTransactions,
		"failed_transactions":       m.FailedTransactions,
		"retried_transactions":      m.RetriedTransactions,
		"expired_transactions":      m.ExpiredTransactions,
		"refunds_issued":            m.RefundsIssued,
		"refund_failures":           m.RefundFailures,
		"registry_refreshes":        m.RegistryRefreshes,
		"registry_refresh_failures": m.RegistryRefreshFailures,
		"error_count":               m.ErrorCount,
		"last_error_time":           m.LastErrorTime,
		"error_types":               m.ErrorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalSweeps = 0
	m.ProcessedPending = 0
	m.CompletedTransactions = 0
	m.FailedTransactions = 0
	m.RetriedTransactions = 0
	m.ExpiredTransactions = 0
	m.RefundsIssued = 0
	m.RefundFailures = 0
	m.RegistryRefreshes = 0
	m.RegistryRefreshFailures = 0
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
}

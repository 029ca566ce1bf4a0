package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

var compressions = map[string]kafka.Compression{
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

// Producer publishes analysis events and aggregated error logs.
type Producer struct {
	writer *kafka.Writer
	codec  string
}

// NewProducer creates a new Kafka producer. No connection is made until the
// first write.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := DefaultProducerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}

	codec := cfg.Compression
	if codec == "" {
		codec = "snappy"
	}

	var balancer kafka.Balancer = &kafka.LeastBytes{}
	if cfg.Keyed {
		balancer = &kafka.Hash{}
	}

	initProducerMetrics()
	return &Producer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Brokers...),
			Balancer:     balancer,
			RequiredAcks: kafka.RequiredAcks(cfg.RequiredAcks),
			Compression:  compressions[codec],
			MaxAttempts:  cfg.MaxAttempts,
			WriteTimeout: cfg.WriteTimeout,
			BatchSize:    cfg.BatchSize,
			BatchBytes:   int64(cfg.BatchBytes),
			BatchTimeout: cfg.Linger,
			Async:        cfg.Async,
		},
		codec: codec,
	}, nil
}

// Publish sends value to topic. Strings and byte slices are written as-is,
// anything else as JSON.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	payload, err := encodeValue(value)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: topic,
		Key:   key,
		Value: payload,
		Time:  start,
	})
	observe(topic, p.codec, len(payload), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// PublishMessage publishes payload without a key so the producer can serve
// as the log collector's sink.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

// Close flushes pending async writes and closes the writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func encodeValue(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("marshal value: %w", err)
	}
	return b, nil
}

var (
	metricsOnce     sync.Once
	publishedTotal  *prometheus.CounterVec
	publishedBytes  *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
)

func initProducerMetrics() {
	metricsOnce.Do(func() {
		publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "intellimarket_kafka_published_total",
			Help: "Messages published to Kafka by outcome",
		}, []string{"topic", "outcome"})
		publishedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "intellimarket_kafka_published_bytes_total",
			Help: "Payload bytes published to Kafka",
		}, []string{"topic", "compression"})
		publishDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "intellimarket_kafka_publish_seconds",
			Help:    "Kafka publish latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})
	})
}

func observe(topic, codec string, size int, d time.Duration, err error) {
	if publishedTotal == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	publishedTotal.WithLabelValues(topic, outcome).Inc()
	publishedBytes.WithLabelValues(topic, codec).Add(float64(size))
	publishDuration.WithLabelValues(topic).Observe(d.Seconds())
}

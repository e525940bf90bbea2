package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

const DefaultTopic = "swapledger.audit"

// KafkaSink publishes events asynchronously; delivery failures surface on
// the producer's error channel and are only logged.
type KafkaSink struct {
	producer sarama.AsyncProducer
	topic    string
	logger   *zap.Logger
	wg       sync.WaitGroup
}

func NewKafkaSink(brokers []string, topic string, logger *zap.Logger) (*KafkaSink, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = false
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForLocal
	config.Producer.Retry.Max = 3
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewAsyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create producer: %w", err)
	}
	return NewKafkaSinkWithProducer(producer, topic, logger), nil
}

func NewKafkaSinkWithProducer(producer sarama.AsyncProducer, topic string, logger *zap.Logger) *KafkaSink {
	if topic == "" {
		topic = DefaultTopic
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &KafkaSink{producer: producer, topic: topic, logger: logger}
	s.wg.Add(1)
	go s.drainErrors()
	return s
}

func (s *KafkaSink) drainErrors() {
	defer s.wg.Done()
	for perr := range s.producer.Errors() {
		s.logger.Warn("audit event not delivered",
			zap.String("topic", s.topic),
			zap.Error(perr.Err),
		)
	}
}

func (s *KafkaSink) Name() string { return "kafka" }

func (s *KafkaSink) Write(ctx context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(event.Action),
		Value: sarama.ByteEncoder(data),
	}
	select {
	case s.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes buffered messages and stops the error drain.
func (s *KafkaSink) Close() error {
	err := s.producer.Close()
	s.wg.Wait()
	return err
}

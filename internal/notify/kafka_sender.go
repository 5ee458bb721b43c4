package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/eshen7/frc-marketplace/pkg/log"
)

// KafkaSender produces notification jobs to a Kafka topic consumed by the
// external mail worker. Delivery to the mailbox itself happens out of
// process; this service only hands the job off durably.
type KafkaSender struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

func NewKafkaSender(brokers, topic string) (*KafkaSender, error) {
	if err := ensureTopic(brokers, topic); err != nil {
		l := log.L()
		l.Warn().Err(err).Str("topic", topic).Msg("failed to ensure notification topic (may already exist)")
	}

	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}

	s := &KafkaSender{
		producer: p,
		topic:    topic,
		doneCh:   make(chan struct{}),
	}

	go s.deliveryReportHandler()

	return s, nil
}

func ensureTopic(brokers, topic string) error {
	admin, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin client: %w", err)
	}
	defer admin.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	results, err := admin.CreateTopics(ctx, []kafka.TopicSpecification{
		{
			Topic:             topic,
			NumPartitions:     1,
			ReplicationFactor: 1,
		},
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			return fmt.Errorf("failed to create topic %s: %v", result.Topic, result.Error)
		}
	}

	return nil
}

func (s *KafkaSender) deliveryReportHandler() {
	l := log.L()
	for e := range s.producer.Events() {
		switch ev := e.(type) {
		case *kafka.Message:
			if ev.TopicPartition.Error != nil {
				l.Warn().Err(ev.TopicPartition.Error).Msg("kafka notification delivery failed")
			}
		}
	}
	close(s.doneCh)
}

func (s *KafkaSender) Send(ctx context.Context, job *Job) error {
	value, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("failed to marshal notification job: %w", err)
	}

	err = s.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &s.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(job.Kind),
		Value: value,
	}, nil)
	if err != nil {
		return fmt.Errorf("failed to produce notification: %w", err)
	}

	return nil
}

func (s *KafkaSender) Close() error {
	s.producer.Flush(5000)
	s.producer.Close()
	<-s.doneCh
	return nil
}

package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dbtypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dialdirect/backend/internal/types"
	"github.com/rs/zerolog"
)

// ledgerKey is the fixed partition key of the single distribution-state item.
const ledgerKey = "distribution"

// ledgerItem is the DynamoDB shape of the distribution state.
type ledgerItem struct {
	StateKey         string                   `dynamodbav:"StateKey"`
	LastAgentID      string                   `dynamodbav:"LastAgentID"`
	LastDispatchTime time.Time                `dynamodbav:"LastDispatchTime"`
	History          []types.DispatchDecision `dynamodbav:"History"`
	Version          int64                    `dynamodbav:"Version"`
}

// DynamoDBStore implements Store using AWS DynamoDB
type DynamoDBStore struct {
	client *dynamodb.Client
	config DynamoConfig
	logger zerolog.Logger
}

// NewDynamoDBStore creates a new DynamoDB store
func NewDynamoDBStore(ctx context.Context, cfg DynamoConfig, logger zerolog.Logger) (*DynamoDBStore, error) {
	var client *dynamodb.Client

	if cfg.Mode == DynamoModeLocal {
		// For local mode, build the client directly without LoadDefaultConfig.
		// LoadDefaultConfig probes the EC2 IMDS endpoint which hangs on EC2
		// instances when static credentials are intended.
		client = dynamodb.New(dynamodb.Options{
			Region:       cfg.Region,
			BaseEndpoint: aws.String(cfg.Endpoint),
			Credentials:  credentials.NewStaticCredentialsProvider("local", "local", ""),
		})
	} else {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = dynamodb.NewFromConfig(awsCfg)
	}

	store := &DynamoDBStore{
		client: client,
		config: cfg,
		logger: logger,
	}

	// Create tables in local mode
	if cfg.Mode == DynamoModeLocal {
		if err := CreateTablesIfNotExist(ctx, client, cfg, logger); err != nil {
			return nil, err
		}
	}

	logger.Info().
		Str("mode", string(cfg.Mode)).
		Str("region", cfg.Region).
		Msg("DynamoDB store initialized")

	return store, nil
}

func (s *DynamoDBStore) SaveProcessRecord(record types.ProcessRecord) error {
	item, err := attributevalue.MarshalMap(record)
	if err != nil {
		return fmt.Errorf("failed to marshal process record: %w", err)
	}

	_, err = s.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(s.config.ProcessTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save process record: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) GetProcessRecords(dateKey string) ([]types.ProcessRecord, error) {
	keyCond := expression.Key("DateKey").Equal(expression.Value(dateKey))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	result, err := s.client.Query(context.Background(), &dynamodb.QueryInput{
		TableName:                 aws.String(s.config.ProcessTable),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query process records: %w", err)
	}

	var records []types.ProcessRecord
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &records); err != nil {
		return nil, fmt.Errorf("failed to unmarshal process records: %w", err)
	}
	return records, nil
}

func (s *DynamoDBStore) SaveDailyMetrics(metrics types.DailyMetrics) error {
	item, err := attributevalue.MarshalMap(metrics)
	if err != nil {
		return fmt.Errorf("failed to marshal daily metrics: %w", err)
	}

	_, err = s.client.PutItem(context.Background(), &dynamodb.PutItemInput{
		TableName: aws.String(s.config.MetricsTable),
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("failed to save daily metrics: %w", err)
	}
	return nil
}

func (s *DynamoDBStore) GetDailyMetrics(dateKey string) (*types.DailyMetrics, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"Date": dateKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metrics key: %w", err)
	}

	result, err := s.client.GetItem(context.Background(), &dynamodb.GetItemInput{
		TableName: aws.String(s.config.MetricsTable),
		Key:       key,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get daily metrics: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var metrics types.DailyMetrics
	if err := attributevalue.UnmarshalMap(result.Item, &metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal daily metrics: %w", err)
	}
	return &metrics, nil
}

func (s *DynamoDBStore) LoadDistributionState(ctx context.Context) (*types.DistributionState, error) {
	key, err := attributevalue.MarshalMap(map[string]string{"StateKey": ledgerKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ledger key: %w", err)
	}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.config.LedgerTable),
		Key:            key,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load distribution state: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item ledgerItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal distribution state: %w", err)
	}

	return &types.DistributionState{
		LastAgentID:      item.LastAgentID,
		LastDispatchTime: item.LastDispatchTime,
		History:          item.History,
		Version:          item.Version,
	}, nil
}

func (s *DynamoDBStore) SaveDistributionState(ctx context.Context, state *types.DistributionState, expectedVersion int64) error {
	item, err := attributevalue.MarshalMap(ledgerItem{
		StateKey:         ledgerKey,
		LastAgentID:      state.LastAgentID,
		LastDispatchTime: state.LastDispatchTime,
		History:          state.History,
		Version:          expectedVersion + 1,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal distribution state: %w", err)
	}

	// The conditional write is the cross-instance mutual exclusion: the put
	// only lands if nobody else advanced the cursor since we read it.
	var cond expression.ConditionBuilder
	if expectedVersion == 0 {
		cond = expression.AttributeNotExists(expression.Name("StateKey"))
	} else {
		cond = expression.Name("Version").Equal(expression.Value(expectedVersion))
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition: %w", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(s.config.LedgerTable),
		Item:                      item,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var condFailed *dbtypes.ConditionalCheckFailedException
		if errors.As(err, &condFailed) {
			return ErrVersionConflict
		}
		return fmt.Errorf("failed to save distribution state: %w", err)
	}
	return nil
}

// NewStore creates the appropriate store based on configuration
func NewStore(ctx context.Context, logger zerolog.Logger) (Store, error) {
	cfg := LoadDynamoConfig()

	switch cfg.Mode {
	case DynamoModeLocal, DynamoModeAWS:
		return NewDynamoDBStore(ctx, cfg, logger)
	default:
		logger.Info().Msg("DynamoDB disabled (DYNAMO_MODE=none), using in-memory store")
		return NewMemoryStore(), nil
	}
}

// TruncateAll deletes all items from the process and metrics tables and
// resets the distribution state (scan + batch delete)
func (s *DynamoDBStore) TruncateAll() error {
	tables := []struct {
		name string
		pk   string
		sk   string
	}{
		{s.config.ProcessTable, "DateKey", "ProcessID"},
		{s.config.MetricsTable, "Date", ""},
		{s.config.LedgerTable, "StateKey", ""},
	}

	for _, table := range tables {
		if err := s.truncateTable(table.name, table.pk, table.sk); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table.name, err)
		}
	}
	return nil
}

func (s *DynamoDBStore) truncateTable(tableName, pk, sk string) error {
	var lastKey map[string]dbtypes.AttributeValue

	projection := "#pk"
	names := map[string]string{"#pk": pk}
	if sk != "" {
		projection = "#pk, #sk"
		names["#sk"] = sk
	}

	for {
		input := &dynamodb.ScanInput{
			TableName:                aws.String(tableName),
			ProjectionExpression:     aws.String(projection),
			ExpressionAttributeNames: names,
			Limit:                    aws.Int32(500),
		}
		if lastKey != nil {
			input.ExclusiveStartKey = lastKey
		}

		result, err := s.client.Scan(context.Background(), input)
		if err != nil {
			return err
		}

		// Batch delete in groups of 25
		for i := 0; i < len(result.Items); i += 25 {
			end := i + 25
			if end > len(result.Items) {
				end = len(result.Items)
			}

			requests := make([]dbtypes.WriteRequest, 0, end-i)
			for _, item := range result.Items[i:end] {
				key := map[string]dbtypes.AttributeValue{pk: item[pk]}
				if sk != "" {
					key[sk] = item[sk]
				}
				requests = append(requests, dbtypes.WriteRequest{
					DeleteRequest: &dbtypes.DeleteRequest{Key: key},
				})
			}

			_, err := s.client.BatchWriteItem(context.Background(), &dynamodb.BatchWriteItemInput{
				RequestItems: map[string][]dbtypes.WriteRequest{
					tableName: requests,
				},
			})
			if err != nil {
				return err
			}
		}

		lastKey = result.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}

	s.logger.Info().Str("table", tableName).Msg("table truncated")
	return nil
}

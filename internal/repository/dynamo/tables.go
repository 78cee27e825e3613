package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// TableAdmin is the subset of the client needed to bootstrap tables.
type TableAdmin interface {
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Schemas returns the key layout of each table.
func Schemas(t Tables) []*dynamodb.CreateTableInput {
	return []*dynamodb.CreateTableInput{
		hashTable(t.Users, "userId"),
		hashTable(t.Channels, "channelId"),
		{
			TableName: aws.String(t.Messages),
			AttributeDefinitions: []types.AttributeDefinition{
				{AttributeName: aws.String("channelId"), AttributeType: types.ScalarAttributeTypeS},
				{AttributeName: aws.String("timestamp"), AttributeType: types.ScalarAttributeTypeN},
			},
			KeySchema: []types.KeySchemaElement{
				{AttributeName: aws.String("channelId"), KeyType: types.KeyTypeHash},
				{AttributeName: aws.String("timestamp"), KeyType: types.KeyTypeRange},
			},
			BillingMode: types.BillingModePayPerRequest,
		},
	}
}

func hashTable(name, key string) *dynamodb.CreateTableInput {
	return &dynamodb.CreateTableInput{
		TableName: aws.String(name),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(key), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(key), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	}
}

// EnsureTables creates any missing table and waits until it is active.
// Meant for DynamoDB Local; production tables are provisioned elsewhere.
func EnsureTables(ctx context.Context, db TableAdmin, t Tables) error {
	waiter := dynamodb.NewTableExistsWaiter(db)

	for _, schema := range Schemas(t) {
		name := aws.ToString(schema.TableName)

		_, err := db.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: schema.TableName})
		if err == nil {
			continue
		}
		var notFound *types.ResourceNotFoundException
		if !errors.As(err, &notFound) {
			return fmt.Errorf("describing table %s: %w", name, err)
		}

		if _, err := db.CreateTable(ctx, schema); err != nil {
			return fmt.Errorf("creating table %s: %w", name, err)
		}
		if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: schema.TableName}, 2*time.Minute); err != nil {
			return fmt.Errorf("waiting for table %s: %w", name, err)
		}
		zap.L().Info("dynamodb table created", zap.String("table", name))
	}
	return nil
}

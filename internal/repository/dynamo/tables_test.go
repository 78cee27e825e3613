package dynamo

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func describing(name string) any {
	return mock.MatchedBy(func(in *dynamodb.DescribeTableInput) bool {
		return aws.ToString(in.TableName) == name
	})
}

func activeTable() *dynamodb.DescribeTableOutput {
	return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{TableStatus: types.TableStatusActive}}
}

var testTables = Tables{Users: "Users", Channels: "Channels", Messages: "Messages"}

func TestEnsureTables_CreatesOnlyMissing(t *testing.T) {
	db := &MockAPI{}
	db.On("DescribeTable", mock.Anything, describing("Users")).Return(activeTable(), nil)
	db.On("DescribeTable", mock.Anything, describing("Channels")).Return(activeTable(), nil)
	db.On("DescribeTable", mock.Anything, describing("Messages")).Return(nil, &types.ResourceNotFoundException{}).Once()
	db.On("DescribeTable", mock.Anything, describing("Messages")).Return(activeTable(), nil)
	db.On("CreateTable", mock.Anything, mock.MatchedBy(func(in *dynamodb.CreateTableInput) bool {
		return aws.ToString(in.TableName) == "Messages" && len(in.KeySchema) == 2
	})).Return(&dynamodb.CreateTableOutput{}, nil).Once()

	require.NoError(t, EnsureTables(context.Background(), db, testTables))
	db.AssertNumberOfCalls(t, "CreateTable", 1)
	db.AssertExpectations(t)
}

func TestEnsureTables_StopsOnDescribeError(t *testing.T) {
	db := &MockAPI{}
	db.On("DescribeTable", mock.Anything, describing("Users")).Return(nil, errors.New("access denied"))

	err := EnsureTables(context.Background(), db, testTables)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "describing table Users")
	db.AssertNotCalled(t, "CreateTable", mock.Anything, mock.Anything)
}

func TestSchemas_MessagesKeyedByChannelAndTimestamp(t *testing.T) {
	schemas := Schemas(testTables)
	require.Len(t, schemas, 3)

	msgs := schemas[2]
	assert.Equal(t, "Messages", aws.ToString(msgs.TableName))
	assert.Equal(t, "channelId", aws.ToString(msgs.KeySchema[0].AttributeName))
	assert.Equal(t, types.KeyTypeHash, msgs.KeySchema[0].KeyType)
	assert.Equal(t, "timestamp", aws.ToString(msgs.KeySchema[1].AttributeName))
	assert.Equal(t, types.KeyTypeRange, msgs.KeySchema[1].KeyType)
}

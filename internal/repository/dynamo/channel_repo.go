package dynamo

import (
	"context"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository"
)

type ChannelRepo struct {
	db    API
	table string
}

func NewChannelRepo(db API, table string) *ChannelRepo {
	return &ChannelRepo{db: db, table: table}
}

func (r *ChannelRepo) Create(ctx context.Context, ch *domain.Channel) error {
	item, err := attributevalue.MarshalMap(ch)
	if err != nil {
		return fmt.Errorf("marshal channel: %w", err)
	}
	_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           table(r.table),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(channelId)"),
	})
	if isConditionFailed(err) {
		return repository.ErrExists
	}
	return err
}

func (r *ChannelRepo) GetByID(ctx context.Context, id string) (*domain.Channel, error) {
	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: table(r.table),
		Key:       stringKey("channelId", id),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var ch domain.Channel
	if err := attributevalue.UnmarshalMap(out.Item, &ch); err != nil {
		return nil, fmt.Errorf("unmarshal channel: %w", err)
	}
	return &ch, nil
}

func (r *ChannelRepo) ListPublic(ctx context.Context) ([]domain.Channel, error) {
	isDM := expression.Name("isDM")
	filter := expression.Or(
		expression.AttributeNotExists(isDM),
		isDM.Equal(expression.Value(false)),
	)
	return r.scan(ctx, filter)
}

func (r *ChannelRepo) ListDMs(ctx context.Context, userID string) ([]domain.Channel, error) {
	filter := expression.And(
		expression.Name("isDM").Equal(expression.Value(true)),
		expression.Contains(expression.Name("participants"), userID),
	)
	return r.scan(ctx, filter)
}

func (r *ChannelRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: table(r.table),
		Key:       stringKey("channelId", id),
	})
	return err
}

func (r *ChannelRepo) scan(ctx context.Context, filter expression.ConditionBuilder) ([]domain.Channel, error) {
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("building filter: %w", err)
	}

	p := dynamodb.NewScanPaginator(r.db, &dynamodb.ScanInput{
		TableName:                 table(r.table),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var channels []domain.Channel
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Channel
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal channels: %w", err)
		}
		channels = append(channels, batch...)
	}

	sort.SliceStable(channels, func(i, j int) bool {
		return channels[i].CreatedAt < channels[j].CreatedAt
	})
	return channels, nil
}

package dynamo

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/vedran77/teamchat/internal/domain"
	"github.com/vedran77/teamchat/internal/repository"
	"golang.org/x/sync/errgroup"
)

const (
	maxSlotAttempts   = 5
	batchWriteSize    = 25
	batchConcurrency  = 4
	maxBatchRetries   = 5
	maxSearchPages    = 50
	searchScanPageCap = 500
)

type MessageRepo struct {
	db    API
	table string
	now   func() time.Time
}

func NewMessageRepo(db API, table string) *MessageRepo {
	return &MessageRepo{db: db, table: table, now: time.Now}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	if msg.Timestamp == 0 {
		msg.Timestamp = r.now().UnixMilli()
	}

	// Two messages in the same channel and millisecond would share a key.
	for attempt := 0; attempt < maxSlotAttempts; attempt++ {
		msg.MessageID = domain.MessageID(msg.ChannelID, msg.Timestamp)
		item, err := attributevalue.MarshalMap(msg)
		if err != nil {
			return fmt.Errorf("marshal message: %w", err)
		}

		_, err = r.db.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                table(r.table),
			Item:                     item,
			ConditionExpression:      aws.String("attribute_not_exists(#ts)"),
			ExpressionAttributeNames: map[string]string{"#ts": "timestamp"},
		})
		if err == nil {
			return nil
		}
		if !isConditionFailed(err) {
			return err
		}
		msg.Timestamp++
	}
	return fmt.Errorf("no free timestamp slot in %s: %w", msg.ChannelID, repository.ErrConflict)
}

func (r *MessageRepo) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	channelID, ts, err := domain.ParseMessageID(id)
	if err != nil {
		return nil, err
	}

	out, err := r.db.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      table(r.table),
		Key:            messageKey(channelID, ts),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, nil
	}
	var msg domain.Message
	if err := attributevalue.UnmarshalMap(out.Item, &msg); err != nil {
		return nil, fmt.Errorf("unmarshal message: %w", err)
	}
	return &msg, nil
}

func (r *MessageRepo) ListByChannel(ctx context.Context, channelID string, limit int) ([]domain.Message, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("channelId").Equal(expression.Value(channelID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("building key condition: %w", err)
	}

	out, err := r.db.Query(ctx, &dynamodb.QueryInput{
		TableName:                 table(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(false),
		Limit:                     aws.Int32(int32(limit)),
	})
	if err != nil {
		return nil, err
	}

	var messages []domain.Message
	if err := attributevalue.UnmarshalListOfMaps(out.Items, &messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}

	// Reverse to chronological order (query returns newest first)
	slices.Reverse(messages)
	return messages, nil
}

func (r *MessageRepo) ListThread(ctx context.Context, parentMessageID string) ([]domain.Message, error) {
	channelID, _, err := domain.ParseMessageID(parentMessageID)
	if err != nil {
		return nil, err
	}

	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("channelId").Equal(expression.Value(channelID))).
		WithFilter(expression.Name("parentMessageId").Equal(expression.Value(parentMessageID))).
		Build()
	if err != nil {
		return nil, fmt.Errorf("building thread query: %w", err)
	}

	p := dynamodb.NewQueryPaginator(r.db, &dynamodb.QueryInput{
		TableName:                 table(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ScanIndexForward:          aws.Bool(true),
	})

	var replies []domain.Message
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Message
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal thread: %w", err)
		}
		replies = append(replies, batch...)
	}
	return replies, nil
}

func (r *MessageRepo) UpdateReactions(ctx context.Context, msg *domain.Message, reactions map[string][]string) error {
	version := expression.Name("version")
	update := expression.Set(version, expression.Value(msg.Version+1))
	if len(reactions) == 0 {
		update = update.Remove(expression.Name("reactions"))
	} else {
		update = update.Set(expression.Name("reactions"), expression.Value(reactions))
	}

	versionMatches := version.Equal(expression.Value(msg.Version))
	if msg.Version == 0 {
		versionMatches = expression.Or(expression.AttributeNotExists(version), versionMatches)
	}
	cond := expression.And(expression.AttributeExists(expression.Name("channelId")), versionMatches)

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("building reaction update: %w", err)
	}

	_, err = r.db.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 table(r.table),
		Key:                       messageKey(msg.ChannelID, msg.Timestamp),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailed(err) {
		return repository.ErrConflict
	}
	if err != nil {
		return err
	}

	msg.Reactions = reactions
	msg.Version++
	return nil
}

func (r *MessageRepo) Delete(ctx context.Context, id string) error {
	channelID, ts, err := domain.ParseMessageID(id)
	if err != nil {
		return err
	}
	_, err = r.db.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: table(r.table),
		Key:       messageKey(channelID, ts),
	})
	return err
}

// DeleteByChannel removes every message of a channel. It is not atomic: a
// failure part way leaves the remaining messages in place.
func (r *MessageRepo) DeleteByChannel(ctx context.Context, channelID string) (int, error) {
	expr, err := expression.NewBuilder().
		WithKeyCondition(expression.Key("channelId").Equal(expression.Value(channelID))).
		WithProjection(expression.NamesList(expression.Name("channelId"), expression.Name("timestamp"))).
		Build()
	if err != nil {
		return 0, fmt.Errorf("building key query: %w", err)
	}

	p := dynamodb.NewQueryPaginator(r.db, &dynamodb.QueryInput{
		TableName:                 table(r.table),
		KeyConditionExpression:    expr.KeyCondition(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var keys []map[string]types.AttributeValue
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return 0, err
		}
		keys = append(keys, page.Items...)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for chunk := range slices.Chunk(keys, batchWriteSize) {
		g.Go(func() error {
			return r.batchDelete(gctx, chunk)
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	return len(keys), nil
}

func (r *MessageRepo) batchDelete(ctx context.Context, keys []map[string]types.AttributeValue) error {
	requests := make([]types.WriteRequest, 0, len(keys))
	for _, k := range keys {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: k},
		})
	}

	pending := map[string][]types.WriteRequest{r.table: requests}
	for attempt := 0; attempt < maxBatchRetries; attempt++ {
		out, err := r.db.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return err
		}
		if len(out.UnprocessedItems) == 0 {
			return nil
		}
		pending = out.UnprocessedItems

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 50 * time.Millisecond):
		}
	}
	return fmt.Errorf("batch delete: %d requests left unprocessed", len(pending[r.table]))
}

// Search scans the table for messages whose content or attachment name
// contains query, ignoring case. Results are newest first.
func (r *MessageRepo) Search(ctx context.Context, query string, limit int, visible func(*domain.Message) bool) ([]domain.Message, error) {
	needle := strings.ToLower(query)

	p := dynamodb.NewScanPaginator(r.db, &dynamodb.ScanInput{
		TableName: table(r.table),
		Limit:     aws.Int32(searchScanPageCap),
	})

	var matches []domain.Message
	for pages := 0; p.HasMorePages() && pages < maxSearchPages; pages++ {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []domain.Message
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal messages: %w", err)
		}
		for _, m := range batch {
			if matchesQuery(&m, needle) && (visible == nil || visible(&m)) {
				matches = append(matches, m)
			}
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Timestamp > matches[j].Timestamp
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

func matchesQuery(m *domain.Message, needle string) bool {
	if strings.Contains(strings.ToLower(m.Content), needle) {
		return true
	}
	return m.FileAttachment != nil && strings.Contains(strings.ToLower(m.FileAttachment.FileName), needle)
}

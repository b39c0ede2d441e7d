package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"labeltree/domain/core/entities"
)

const (
	entityTypeNode = "NODE"
	metadataSK     = "METADATA"
)

var (
	// ErrDuplicateID is returned when a node with the same id already exists.
	ErrDuplicateID = errors.New("dynamodb store: duplicate node id")
	// ErrParentMissing is returned when the parent item does not exist at write time.
	ErrParentMissing = errors.New("dynamodb store: parent node does not exist")
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	TransactWriteItems(ctx context.Context, params *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// NodeStore implements ports.NodeStore on a single DynamoDB table.
type NodeStore struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewNodeStore creates a new NodeStore
func NewNodeStore(client DynamoDBAPI, tableName string, logger *zap.Logger) *NodeStore {
	return &NodeStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       time.Now,
	}
}

// nodeItem represents the DynamoDB item structure for a node.
// Seq is the creation time in nanoseconds and gives scans a stable order.
type nodeItem struct {
	PK         string  `dynamodbav:"PK"`
	SK         string  `dynamodbav:"SK"`
	EntityType string  `dynamodbav:"EntityType"`
	ID         string  `dynamodbav:"ID"`
	Label      string  `dynamodbav:"Label"`
	ParentID   *string `dynamodbav:"ParentID,omitempty"`
	Seq        int64   `dynamodbav:"Seq"`
}

func nodeKey(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "NODE#" + id},
		"SK": &types.AttributeValueMemberS{Value: metadataSK},
	}
}

// ScanAll reads every node item and orders them by creation sequence.
func (s *NodeStore) ScanAll(ctx context.Context) ([]*entities.NodeRecord, error) {
	filter := expression.Name("EntityType").Equal(expression.Value(entityTypeNode))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build expression: %w", err)
	}

	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName:                 aws.String(s.tableName),
		FilterExpression:          expr.Filter(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(true),
	})

	items := make([]nodeItem, 0)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan nodes: %w", err)
		}
		var batch []nodeItem
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
		}
		items = append(items, batch...)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Seq != items[j].Seq {
			return items[i].Seq < items[j].Seq
		}
		return items[i].ID < items[j].ID
	})

	records := make([]*entities.NodeRecord, 0, len(items))
	for _, item := range items {
		records = append(records, entities.ReconstructNodeRecord(item.ID, item.Label, item.ParentID))
	}

	s.logger.Debug("Scanned nodes", zap.Int("count", len(records)))
	return records, nil
}

// GetByID returns (nil, nil) when no item has the id.
func (s *NodeStore) GetByID(ctx context.Context, id string) (*entities.NodeRecord, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            nodeKey(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get node: %w", err)
	}
	if result.Item == nil {
		return nil, nil
	}

	var item nodeItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return entities.ReconstructNodeRecord(item.ID, item.Label, item.ParentID), nil
}

// Insert writes a node item that must not exist yet. For a child node the
// put is paired with a condition check on the parent in one transaction.
func (s *NodeStore) Insert(ctx context.Context, record *entities.NodeRecord) error {
	id := record.ID().String()
	item := nodeItem{
		PK:         "NODE#" + id,
		SK:         metadataSK,
		EntityType: entityTypeNode,
		ID:         id,
		Label:      record.Label(),
		ParentID:   record.ParentIDString(),
		Seq:        s.now().UnixNano(),
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return fmt.Errorf("failed to marshal node: %w", err)
	}

	notExists, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeNotExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	if item.ParentID == nil {
		_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:                 aws.String(s.tableName),
			Item:                      av,
			ConditionExpression:       notExists.Condition(),
			ExpressionAttributeNames:  notExists.Names(),
			ExpressionAttributeValues: notExists.Values(),
		})
		if err != nil {
			var ccf *types.ConditionalCheckFailedException
			if errors.As(err, &ccf) {
				return fmt.Errorf("%w: %s", ErrDuplicateID, id)
			}
			return fmt.Errorf("failed to put node: %w", err)
		}
		s.logger.Debug("Node saved", zap.String("nodeID", id))
		return nil
	}

	parentExists, err := expression.NewBuilder().
		WithCondition(expression.Name("PK").AttributeExists()).
		Build()
	if err != nil {
		return fmt.Errorf("failed to build expression: %w", err)
	}

	_, err = s.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{
				ConditionCheck: &types.ConditionCheck{
					TableName:                 aws.String(s.tableName),
					Key:                       nodeKey(*item.ParentID),
					ConditionExpression:       parentExists.Condition(),
					ExpressionAttributeNames:  parentExists.Names(),
					ExpressionAttributeValues: parentExists.Values(),
				},
			},
			{
				Put: &types.Put{
					TableName:                 aws.String(s.tableName),
					Item:                      av,
					ConditionExpression:       notExists.Condition(),
					ExpressionAttributeNames:  notExists.Names(),
					ExpressionAttributeValues: notExists.Values(),
				},
			},
		},
	})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return cancellationError(tce, id, *item.ParentID)
		}
		return fmt.Errorf("failed to write node transaction: %w", err)
	}

	s.logger.Debug("Node saved",
		zap.String("nodeID", id),
		zap.String("parentID", *item.ParentID),
	)
	return nil
}

// cancellationError maps the per-item reasons of a cancelled transaction.
// Reason 0 is the parent condition check, reason 1 the put.
func cancellationError(tce *types.TransactionCanceledException, id, parentID string) error {
	reasons := tce.CancellationReasons
	if len(reasons) > 0 && aws.ToString(reasons[0].Code) == "ConditionalCheckFailed" {
		return fmt.Errorf("%w: %s", ErrParentMissing, parentID)
	}
	if len(reasons) > 1 && aws.ToString(reasons[1].Code) == "ConditionalCheckFailed" {
		return fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	return fmt.Errorf("node transaction cancelled: %w", tce)
}

// Ping implements ports.HealthChecker by describing the table.
func (s *NodeStore) Ping(ctx context.Context) error {
	out, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	if err != nil {
		return fmt.Errorf("failed to describe table: %w", err)
	}
	if out.Table != nil && out.Table.TableStatus != types.TableStatusActive {
		return fmt.Errorf("table %s is %s", s.tableName, out.Table.TableStatus)
	}
	return nil
}

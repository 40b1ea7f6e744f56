package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/rs/zerolog"

	"github.com/undeadops/tersemap/internal/store"
)

// DynamoAPI is the subset of the DynamoDB client the store uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

type Client struct {
	DebugMode   bool
	Table       string
	Region      string
	DDBEndpoint string
	DDB         DynamoAPI
	Logger      *zerolog.Logger
}

// uriItem is a mapping record as stored in DynamoDB
type uriItem struct {
	Token       string `dynamodbav:"token"`        // partition key
	OriginalURI string `dynamodbav:"original_uri"` // the full URI to redirect to
	CreatedAt   int64  `dynamodbav:"created_at"`   // Unix timestamp of creation
}

const tokenAttr = "token"

// SetupDB connects to DynamoDB unless c.DDB is already set and creates the
// table when it does not exist yet.
func SetupDB(ctx context.Context, c *Client) error {
	if c.Table == "" {
		return errors.New("dynamodb table name is empty")
	}

	if c.DDB == nil {
		opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
		if c.DDBEndpoint != "" {
			// Local endpoints (dynamodb-local, localstack) accept any credentials.
			opts = append(opts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider("dummy1", "dummy2", "dummy3")))
		}
		cfg, err := config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return fmt.Errorf("failed to load aws config: %w", err)
		}

		if c.DDBEndpoint != "" {
			c.DDB = dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
				o.BaseEndpoint = aws.String(c.DDBEndpoint)
			})
			c.Logger.Info().Str("endpoint", c.DDBEndpoint).Msg("Using custom DynamoDB endpoint")
		} else {
			c.DDB = dynamodb.NewFromConfig(cfg)
		}
	}

	_, err := c.DDB.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(c.Table),
	})
	if err == nil {
		c.Logger.Debug().Str("table", c.Table).Msg("Connected to DynamoDB table")
		return nil
	}

	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("failed to describe table: %w", err)
	}

	c.Logger.Info().Str("table", c.Table).Msg("Table doesn't exist, creating")
	// Only the key attribute is declared; original_uri and created_at are
	// schemaless item attributes.
	_, err = c.DDB.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(c.Table),
		KeySchema: []types.KeySchemaElement{
			{
				AttributeName: aws.String(tokenAttr),
				KeyType:       types.KeyTypeHash,
			},
		},
		AttributeDefinitions: []types.AttributeDefinition{
			{
				AttributeName: aws.String(tokenAttr),
				AttributeType: types.ScalarAttributeTypeS,
			},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}

	c.Logger.Info().Str("table", c.Table).Msg("Table created successfully")
	return nil
}

func (c *Client) key(token string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		tokenAttr: &types.AttributeValueMemberS{Value: token},
	}
}

func (c *Client) Get(ctx context.Context, token string) (store.Record, error) {
	result, err := c.DDB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(c.Table),
		Key:       c.key(token),
	})
	if err != nil {
		return store.Record{}, fmt.Errorf("failed to get item: %w", err)
	}

	if result.Item == nil {
		return store.Record{}, store.ErrNotFound
	}

	var item uriItem
	if err := attributevalue.UnmarshalMap(result.Item, &item); err != nil {
		return store.Record{}, fmt.Errorf("failed to unmarshal item: %w", err)
	}

	return store.Record{Token: item.Token, OriginalURI: item.OriginalURI}, nil
}

// Insert writes the item only when no item holds the token yet. A failed
// condition is the ignore half of insert-or-ignore.
func (c *Client) Insert(ctx context.Context, token string, originalURI string) error {
	av, err := attributevalue.MarshalMap(uriItem{
		Token:       token,
		OriginalURI: originalURI,
		CreatedAt:   time.Now().Unix(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name(tokenAttr))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build condition expression: %w", err)
	}

	_, err = c.DDB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(c.Table),
		Item:                      av,
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var exists *types.ConditionalCheckFailedException
		if errors.As(err, &exists) {
			if c.DebugMode {
				c.Logger.Debug().Str("token", token).Msg("Token already stored, insert ignored")
			}
			return nil
		}
		return fmt.Errorf("failed to put item: %w", err)
	}

	return nil
}

func (c *Client) Delete(ctx context.Context, token string) (bool, error) {
	out, err := c.DDB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(c.Table),
		Key:          c.key(token),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return false, fmt.Errorf("failed to delete item: %w", err)
	}

	return len(out.Attributes) > 0, nil
}

func (c *Client) List(ctx context.Context) ([]store.Record, error) {
	records := make([]store.Record, 0)
	paginator := dynamodb.NewScanPaginator(c.DDB, &dynamodb.ScanInput{
		TableName: aws.String(c.Table),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to scan table: %w", err)
		}
		for _, raw := range page.Items {
			var item uriItem
			if err := attributevalue.UnmarshalMap(raw, &item); err != nil {
				// Skip items that can't be unmarshaled
				c.Logger.Warn().Err(err).Msg("failed to unmarshal item")
				continue
			}
			records = append(records, store.Record{Token: item.Token, OriginalURI: item.OriginalURI})
		}
	}

	return records, nil
}

// Close is a no-op, the SDK client holds no connection that needs closing.
func (c *Client) Close() error {
	return nil
}

package leads

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

type dynamoPutter interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// DynamoRepository stores leads as items in a DynamoDB table keyed by id.
type DynamoRepository struct {
	client dynamoPutter
	table  string
	now    func() time.Time
}

// NewDynamoRepository wires a repository to an existing table.
func NewDynamoRepository(client dynamoPutter, table string) *DynamoRepository {
	if client == nil {
		panic("leads: dynamodb client required")
	}
	if table == "" {
		panic("leads: dynamodb table required")
	}
	return &DynamoRepository{client: client, table: table, now: time.Now}
}

type dynamoItem struct {
	ID        string  `dynamodbav:"id"`
	Name      string  `dynamodbav:"name"`
	Phone     string  `dynamodbav:"phone"`
	Telegram  *string `dynamodbav:"telegram,omitempty"`
	WhatsApp  *string `dynamodbav:"whatsapp,omitempty"`
	Website   *string `dynamodbav:"website,omitempty"`
	Budget    *string `dynamodbav:"budget,omitempty"`
	Source    string  `dynamodbav:"source"`
	UTM       *string `dynamodbav:"utm,omitempty"`
	CreatedAt string  `dynamodbav:"created_at"`
}

// Create writes one item. DynamoDB has no sequence, so the id is a v4 UUID
// and the condition guards against an (improbable) overwrite.
func (r *DynamoRepository) Create(ctx context.Context, lead *Lead) (*Lead, error) {
	stored := *lead
	stored.ID = uuid.NewString()
	stored.CreatedAt = r.now().UTC()

	item := dynamoItem{
		ID:        stored.ID,
		Name:      stored.Name,
		Phone:     stored.Phone,
		Telegram:  stored.Telegram,
		WhatsApp:  stored.WhatsApp,
		Website:   stored.Website,
		Budget:    stored.Budget,
		Source:    stored.Source,
		CreatedAt: stored.CreatedAt.Format(time.RFC3339Nano),
	}
	if len(stored.UTM) > 0 {
		item.UTM = aws.String(string(stored.UTM))
	}

	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("leads: marshal dynamo item: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			return nil, &StoreError{Detail: apiErr.ErrorMessage(), Err: err}
		}
		return nil, &StoreError{Err: fmt.Errorf("leads: dynamodb put failed: %w", err)}
	}
	return &stored, nil
}

package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/codeduel-vn/codeduel/internal/app/duel"
	"github.com/codeduel-vn/codeduel/internal/domains/entities"
)

const handleIndexName = "HandleIndex"

func (client *Client) GetUser(ctx context.Context, userId string) (entities.User, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.UsersTableName,
		Key: map[string]types.AttributeValue{
			"UserId": &types.AttributeValueMemberS{
				Value: userId,
			},
		},
	})
	if err != nil {
		return entities.User{}, err
	}
	if output.Item == nil {
		return entities.User{}, duel.ErrUserNotFound
	}
	var user entities.User
	if err := attributevalue.UnmarshalMap(output.Item, &user); err != nil {
		return entities.User{}, err
	}
	return user, nil
}

func (client *Client) GetUserByHandle(ctx context.Context, handle string) (entities.User, error) {
	output, err := client.dynamodb.Query(ctx, &dynamodb.QueryInput{
		TableName:              client.cfg.UsersTableName,
		IndexName:              aws.String(handleIndexName),
		KeyConditionExpression: aws.String("Handle = :handle"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":handle": &types.AttributeValueMemberS{Value: handle},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.User{}, err
	}
	if len(output.Items) == 0 {
		return entities.User{}, duel.ErrUserNotFound
	}
	var user entities.User
	if err := attributevalue.UnmarshalMap(output.Items[0], &user); err != nil {
		return entities.User{}, err
	}
	return user, nil
}

func (client *Client) PutUser(ctx context.Context, user entities.User) error {
	av, err := attributevalue.MarshalMap(user)
	if err != nil {
		return fmt.Errorf("failed to marshal user: %w", err)
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           client.cfg.UsersTableName,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(UserId)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put user: %w", err)
	}
	return nil
}

func (client *Client) IncrementWins(ctx context.Context, userId string) error {
	return client.incrementCounter(ctx, userId, "Wins")
}

func (client *Client) IncrementLosses(ctx context.Context, userId string) error {
	return client.incrementCounter(ctx, userId, "Losses")
}

func (client *Client) incrementCounter(ctx context.Context, userId, attribute string) error {
	_, err := client.dynamodb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: client.cfg.UsersTableName,
		Key: map[string]types.AttributeValue{
			"UserId": &types.AttributeValueMemberS{Value: userId},
		},
		UpdateExpression:    aws.String(fmt.Sprintf("ADD %s :one", attribute)),
		ConditionExpression: aws.String("attribute_exists(UserId)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":one": &types.AttributeValueMemberN{Value: "1"},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return duel.ErrUserNotFound
		}
		return err
	}
	return nil
}

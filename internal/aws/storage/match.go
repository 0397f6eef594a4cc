package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/codeduel-vn/codeduel/internal/app/duel"
	"github.com/codeduel-vn/codeduel/internal/domains/entities"
)

func (client *Client) GetMatch(ctx context.Context, matchId string) (entities.Match, error) {
	output, err := client.dynamodb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: client.cfg.MatchesTableName,
		Key: map[string]types.AttributeValue{
			"MatchId": &types.AttributeValueMemberS{
				Value: matchId,
			},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Match{}, err
	}
	if output.Item == nil {
		return entities.Match{}, duel.ErrMatchNotFound
	}
	var match entities.Match
	if err := attributevalue.UnmarshalMap(output.Item, &match); err != nil {
		return entities.Match{}, err
	}
	return match, nil
}

func (client *Client) PutMatch(ctx context.Context, match entities.Match) error {
	av, err := attributevalue.MarshalMap(match)
	if err != nil {
		return fmt.Errorf("failed to marshal match: %w", err)
	}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           client.cfg.MatchesTableName,
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(MatchId)"),
	})
	if err != nil {
		return fmt.Errorf("failed to put match: %w", err)
	}
	return nil
}

// ActivateMatch seats player two and starts the match. The condition on
// Status means two joiners racing for the same seat resolve to exactly one
// winner; the loser gets ErrMatchFull.
func (client *Client) ActivateMatch(
	ctx context.Context,
	matchId,
	player2Id string,
	startedAt time.Time,
) error {
	_, err := client.dynamodb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: client.cfg.MatchesTableName,
		Key: map[string]types.AttributeValue{
			"MatchId": &types.AttributeValueMemberS{Value: matchId},
		},
		UpdateExpression:    aws.String("SET Player2Id = :player2Id, #status = :active, StartedAt = :startedAt"),
		ConditionExpression: aws.String("attribute_exists(MatchId) AND #status = :waiting"),
		ExpressionAttributeNames: map[string]string{
			"#status": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":player2Id": &types.AttributeValueMemberS{Value: player2Id},
			":active":    &types.AttributeValueMemberS{Value: string(entities.MatchActive)},
			":waiting":   &types.AttributeValueMemberS{Value: string(entities.MatchWaiting)},
			":startedAt": &types.AttributeValueMemberS{Value: startedAt.Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return duel.ErrMatchFull
		}
		return err
	}
	return nil
}

// FinalizeMatch records the winner with a compare-and-swap on Status, so
// exactly one of two concurrent finalize attempts wins and the other
// observes ErrMatchFinished. Terminal matches are never modified.
func (client *Client) FinalizeMatch(
	ctx context.Context,
	matchId,
	winnerId string,
	endedAt time.Time,
) error {
	_, err := client.dynamodb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: client.cfg.MatchesTableName,
		Key: map[string]types.AttributeValue{
			"MatchId": &types.AttributeValueMemberS{Value: matchId},
		},
		UpdateExpression:    aws.String("SET #status = :finished, WinnerId = :winnerId, EndedAt = :endedAt"),
		ConditionExpression: aws.String("attribute_exists(MatchId) AND #status = :active"),
		ExpressionAttributeNames: map[string]string{
			"#status": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":finished": &types.AttributeValueMemberS{Value: string(entities.MatchFinished)},
			":active":   &types.AttributeValueMemberS{Value: string(entities.MatchActive)},
			":winnerId": &types.AttributeValueMemberS{Value: winnerId},
			":endedAt":  &types.AttributeValueMemberS{Value: endedAt.Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return duel.ErrMatchFinished
		}
		return err
	}
	return nil
}

// AbortMatch parks a match in the terminal ABORTED state. WAITING and ACTIVE
// matches only; finished matches keep their result.
func (client *Client) AbortMatch(ctx context.Context, matchId string, endedAt time.Time) error {
	_, err := client.dynamodb.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: client.cfg.MatchesTableName,
		Key: map[string]types.AttributeValue{
			"MatchId": &types.AttributeValueMemberS{Value: matchId},
		},
		UpdateExpression:    aws.String("SET #status = :aborted, EndedAt = :endedAt"),
		ConditionExpression: aws.String("attribute_exists(MatchId) AND #status IN (:waiting, :active)"),
		ExpressionAttributeNames: map[string]string{
			"#status": "Status",
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":aborted": &types.AttributeValueMemberS{Value: string(entities.MatchAborted)},
			":waiting": &types.AttributeValueMemberS{Value: string(entities.MatchWaiting)},
			":active":  &types.AttributeValueMemberS{Value: string(entities.MatchActive)},
			":endedAt": &types.AttributeValueMemberS{Value: endedAt.Format(time.RFC3339Nano)},
		},
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return duel.ErrMatchFinished
		}
		return err
	}
	return nil
}

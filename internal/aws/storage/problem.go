package storage

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/codeduel-vn/codeduel/internal/app/duel"
	"github.com/codeduel-vn/codeduel/internal/domains/entities"
)

// SampleProblem picks a random catalog problem whose difficulty rating falls
// inside [minRating, maxRating]. A zero range means any problem: a random
// offset into the full catalog.
func (client *Client) SampleProblem(
	ctx context.Context,
	minRating,
	maxRating int,
) (entities.Problem, error) {
	if minRating == 0 && maxRating == 0 {
		count, err := client.CountProblems(ctx)
		if err != nil {
			return entities.Problem{}, err
		}
		if count == 0 {
			return entities.Problem{}, duel.ErrNoProblemAvailable
		}
		return client.GetProblemByOffset(ctx, rand.Intn(count))
	}

	var candidates []entities.Problem
	var lastKey map[string]types.AttributeValue
	for {
		output, err := client.dynamodb.Scan(ctx, &dynamodb.ScanInput{
			TableName:        client.cfg.ProblemsTableName,
			FilterExpression: aws.String("Rating BETWEEN :minRating AND :maxRating"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":minRating": &types.AttributeValueMemberN{Value: strconv.Itoa(minRating)},
				":maxRating": &types.AttributeValueMemberN{Value: strconv.Itoa(maxRating)},
			},
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return entities.Problem{}, err
		}
		var problems []entities.Problem
		if err := attributevalue.UnmarshalListOfMaps(output.Items, &problems); err != nil {
			return entities.Problem{}, err
		}
		candidates = append(candidates, problems...)
		lastKey = output.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}
	if len(candidates) == 0 {
		return entities.Problem{}, duel.ErrNoProblemAvailable
	}
	return candidates[rand.Intn(len(candidates))], nil
}

// CountProblems returns the catalog size.
func (client *Client) CountProblems(ctx context.Context) (int, error) {
	count := 0
	var lastKey map[string]types.AttributeValue
	for {
		output, err := client.dynamodb.Scan(ctx, &dynamodb.ScanInput{
			TableName:         client.cfg.ProblemsTableName,
			Select:            types.SelectCount,
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return 0, err
		}
		count += int(output.Count)
		lastKey = output.LastEvaluatedKey
		if lastKey == nil {
			break
		}
	}
	return count, nil
}

// GetProblemByOffset returns the n-th problem in scan order.
func (client *Client) GetProblemByOffset(ctx context.Context, n int) (entities.Problem, error) {
	skipped := 0
	var lastKey map[string]types.AttributeValue
	for {
		output, err := client.dynamodb.Scan(ctx, &dynamodb.ScanInput{
			TableName:         client.cfg.ProblemsTableName,
			ExclusiveStartKey: lastKey,
		})
		if err != nil {
			return entities.Problem{}, err
		}
		if n < skipped+len(output.Items) {
			var problem entities.Problem
			if err := attributevalue.UnmarshalMap(output.Items[n-skipped], &problem); err != nil {
				return entities.Problem{}, err
			}
			return problem, nil
		}
		skipped += len(output.Items)
		lastKey = output.LastEvaluatedKey
		if lastKey == nil {
			return entities.Problem{}, duel.ErrNoProblemAvailable
		}
	}
}

// PutProblem upserts one catalog entry keyed by "<contestId>_<index>".
func (client *Client) PutProblem(ctx context.Context, problem entities.Problem) error {
	av, err := attributevalue.MarshalMap(problem)
	if err != nil {
		return fmt.Errorf("failed to marshal problem: %w", err)
	}
	av["UniqueId"] = &types.AttributeValueMemberS{Value: problem.UniqueId()}
	_, err = client.dynamodb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: client.cfg.ProblemsTableName,
		Item:      av,
	})
	if err != nil {
		return fmt.Errorf("failed to put problem: %w", err)
	}
	return nil
}

package main

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/codeduel-vn/codeduel/internal/app/seeder"
	"github.com/codeduel-vn/codeduel/internal/app/server"
	"github.com/codeduel-vn/codeduel/internal/aws/storage"
	"github.com/codeduel-vn/codeduel/internal/codeforces"
	"github.com/codeduel-vn/codeduel/pkg/logging"
	"go.uber.org/zap"
)

// One-shot problem catalog sync, for bootstrapping a fresh deployment.
func main() {
	ctx := context.Background()
	cfg := server.NewConfig()

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, awsConfig.WithRegion(cfg.AwsRegion))
	if err != nil {
		logging.Fatal("failed to load aws config", zap.Error(err))
	}
	storageClient := storage.NewClient(
		dynamodb.NewFromConfig(awsCfg),
		storage.Config{
			ProblemsTableName: aws.String(cfg.ProblemsTableName),
		},
	)
	judgeClient, err := codeforces.NewClient(cfg.CodeforcesBaseUrl)
	if err != nil {
		logging.Fatal("failed to create codeforces client", zap.Error(err))
	}

	count, err := seeder.New(judgeClient, storageClient, cfg.ProblemSyncInterval).SyncOnce(ctx)
	if err != nil {
		logging.Fatal("problem sync failed", zap.Error(err))
	}
	logging.Info("problem sync complete", zap.Int("count", count))
}

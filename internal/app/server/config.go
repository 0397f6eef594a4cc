package server

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string
	JwtKey   string
	TokenTtl time.Duration

	AwsRegion         string
	MatchesTableName  string
	ProblemsTableName string
	UsersTableName    string

	CodeforcesBaseUrl   string
	ProblemSyncEnabled  bool
	ProblemSyncInterval time.Duration

	MinProblemRating int
	MaxProblemRating int
}

func NewConfig() Config {
	var config Config

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs/server")
	viper.AddConfigPath(".")
	err := viper.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	envFiles := []string{
		"./configs/aws/base.env",
	}
	err = loadEnvFiles(envFiles)
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}

	config.Port = viper.GetString("Server.Port")
	config.JwtKey = viper.GetString("Server.JwtKey")
	tokenTtl, err := time.ParseDuration(viper.GetString("Server.TokenTtl"))
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	config.TokenTtl = tokenTtl

	config.AwsRegion = viper.GetString("AWS_REGION")
	config.MatchesTableName = viper.GetString("Tables.Matches")
	config.ProblemsTableName = viper.GetString("Tables.Problems")
	config.UsersTableName = viper.GetString("Tables.Users")

	config.CodeforcesBaseUrl = viper.GetString("Codeforces.BaseUrl")
	config.ProblemSyncEnabled = viper.GetBool("Codeforces.ProblemSyncEnabled")
	syncInterval, err := time.ParseDuration(viper.GetString("Codeforces.ProblemSyncInterval"))
	if err != nil {
		panic(fmt.Errorf("fatal error config file: %s", err))
	}
	config.ProblemSyncInterval = syncInterval

	config.MinProblemRating = viper.GetInt("Matchmaking.MinProblemRating")
	config.MaxProblemRating = viper.GetInt("Matchmaking.MaxProblemRating")

	return config
}

func loadEnvFiles(filenames []string) error {
	for _, file := range filenames {
		viper.SetConfigFile(file)
		viper.SetConfigType("env")
		viper.AutomaticEnv()

		err := viper.MergeInConfig()
		if err != nil {
			return err
		}
	}
	return nil
}

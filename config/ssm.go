package config

import (
	"context"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// ParameterStore is the subset of the SSM client used to read configuration.
type ParameterStore interface {
	GetParametersByPath(ctx context.Context, params *ssm.GetParametersByPathInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersByPathOutput, error)
}

// NewSSMClient builds a Parameter Store client from the default AWS credential chain.
func NewSSMClient(ctx context.Context, region string) (*ssm.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return ssm.NewFromConfig(cfg), nil
}

// LoadParameters reads every parameter under prefix. The last path segment,
// upper-cased, becomes the config key: /blog/prod/db_password -> DB_PASSWORD.
func LoadParameters(ctx context.Context, store ParameterStore, prefix string) (map[string]string, error) {
	values := make(map[string]string)
	input := &ssm.GetParametersByPathInput{
		Path:           aws.String(prefix),
		Recursive:      aws.Bool(true),
		WithDecryption: aws.Bool(true),
	}

	for {
		out, err := store.GetParametersByPath(ctx, input)
		if err != nil {
			return nil, err
		}
		for _, p := range out.Parameters {
			name := strings.ToUpper(path.Base(aws.ToString(p.Name)))
			values[name] = aws.ToString(p.Value)
		}
		if out.NextToken == nil {
			break
		}
		input.NextToken = out.NextToken
	}

	log.Info().Str("prefix", prefix).Int("count", len(values)).Msg("Loaded parameters from SSM")
	return values, nil
}

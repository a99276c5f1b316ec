package provider

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	apigwtypes "github.com/aws/aws-sdk-go-v2/service/apigateway/types"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	smithy "github.com/aws/smithy-go"

	"github.com/artpar/baasflow/internal/core/catalog"
	"github.com/artpar/baasflow/internal/core/choreography"
	"github.com/artpar/baasflow/internal/core/deployment"
	"github.com/artpar/baasflow/internal/core/limits"
	coreprovider "github.com/artpar/baasflow/internal/core/provider"
	"github.com/artpar/baasflow/internal/shell/archive"
)

// lambdaTrustPolicy lets the Lambda service assume the execution role.
const lambdaTrustPolicy = `{"Version": "2012-10-17", "Statement": [{"Effect": "Allow", "Principal": {"Service": "lambda.amazonaws.com"}, "Action": "sts:AssumeRole"}]}`

const (
	httpMethodPost   = "POST"
	apiPrincipal     = "apigateway.amazonaws.com"
	invokeAction     = "lambda:InvokeFunction"
	defaultRoleWait  = 7 * time.Second
	createAttempts   = 5
	awsProviderLabel = "aws"
)

// =============================================================================
// Client Interfaces
// =============================================================================

// LambdaAPI is the subset of the Lambda client the provider calls.
type LambdaAPI interface {
	CreateFunction(ctx context.Context, in *lambda.CreateFunctionInput, optFns ...func(*lambda.Options)) (*lambda.CreateFunctionOutput, error)
	DeleteFunction(ctx context.Context, in *lambda.DeleteFunctionInput, optFns ...func(*lambda.Options)) (*lambda.DeleteFunctionOutput, error)
	AddPermission(ctx context.Context, in *lambda.AddPermissionInput, optFns ...func(*lambda.Options)) (*lambda.AddPermissionOutput, error)
	PublishLayerVersion(ctx context.Context, in *lambda.PublishLayerVersionInput, optFns ...func(*lambda.Options)) (*lambda.PublishLayerVersionOutput, error)
	DeleteLayerVersion(ctx context.Context, in *lambda.DeleteLayerVersionInput, optFns ...func(*lambda.Options)) (*lambda.DeleteLayerVersionOutput, error)
	ListFunctions(ctx context.Context, in *lambda.ListFunctionsInput, optFns ...func(*lambda.Options)) (*lambda.ListFunctionsOutput, error)
	ListLayers(ctx context.Context, in *lambda.ListLayersInput, optFns ...func(*lambda.Options)) (*lambda.ListLayersOutput, error)
	ListLayerVersions(ctx context.Context, in *lambda.ListLayerVersionsInput, optFns ...func(*lambda.Options)) (*lambda.ListLayerVersionsOutput, error)
}

// APIGatewayAPI is the subset of the API Gateway client the provider calls.
type APIGatewayAPI interface {
	CreateRestApi(ctx context.Context, in *apigateway.CreateRestApiInput, optFns ...func(*apigateway.Options)) (*apigateway.CreateRestApiOutput, error)
	DeleteRestApi(ctx context.Context, in *apigateway.DeleteRestApiInput, optFns ...func(*apigateway.Options)) (*apigateway.DeleteRestApiOutput, error)
	GetRestApis(ctx context.Context, in *apigateway.GetRestApisInput, optFns ...func(*apigateway.Options)) (*apigateway.GetRestApisOutput, error)
	GetResources(ctx context.Context, in *apigateway.GetResourcesInput, optFns ...func(*apigateway.Options)) (*apigateway.GetResourcesOutput, error)
	CreateResource(ctx context.Context, in *apigateway.CreateResourceInput, optFns ...func(*apigateway.Options)) (*apigateway.CreateResourceOutput, error)
	PutMethod(ctx context.Context, in *apigateway.PutMethodInput, optFns ...func(*apigateway.Options)) (*apigateway.PutMethodOutput, error)
	PutIntegration(ctx context.Context, in *apigateway.PutIntegrationInput, optFns ...func(*apigateway.Options)) (*apigateway.PutIntegrationOutput, error)
	CreateDeployment(ctx context.Context, in *apigateway.CreateDeploymentInput, optFns ...func(*apigateway.Options)) (*apigateway.CreateDeploymentOutput, error)
}

// IAMAPI is the subset of the IAM client the provider calls.
type IAMAPI interface {
	CreateRole(ctx context.Context, in *iam.CreateRoleInput, optFns ...func(*iam.Options)) (*iam.CreateRoleOutput, error)
	DeleteRole(ctx context.Context, in *iam.DeleteRoleInput, optFns ...func(*iam.Options)) (*iam.DeleteRoleOutput, error)
	ListRoles(ctx context.Context, in *iam.ListRolesInput, optFns ...func(*iam.Options)) (*iam.ListRolesOutput, error)
	AttachRolePolicy(ctx context.Context, in *iam.AttachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.AttachRolePolicyOutput, error)
	DetachRolePolicy(ctx context.Context, in *iam.DetachRolePolicyInput, optFns ...func(*iam.Options)) (*iam.DetachRolePolicyOutput, error)
	ListAttachedRolePolicies(ctx context.Context, in *iam.ListAttachedRolePoliciesInput, optFns ...func(*iam.Options)) (*iam.ListAttachedRolePoliciesOutput, error)
}

// STSAPI is the subset of the STS client the provider calls.
type STSAPI interface {
	GetCallerIdentity(ctx context.Context, in *sts.GetCallerIdentityInput, optFns ...func(*sts.Options)) (*sts.GetCallerIdentityOutput, error)
}

// AWSClients bundles the service clients of one region.
type AWSClients struct {
	Lambda     LambdaAPI
	APIGateway APIGatewayAPI
	IAM        IAMAPI
	STS        STSAPI
}

// NewAWSClients loads the SDK configuration for region and creates the
// service clients. Zero credentials select the default credential chain.
func NewAWSClients(ctx context.Context, region string, creds coreprovider.AWSCredentials) (AWSClients, error) {
	if err := coreprovider.ValidateAWSCredentials(creds); err != nil {
		return AWSClients{}, err
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if creds.Static() {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, creds.SessionToken),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return AWSClients{}, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return AWSClients{
		Lambda:     lambda.NewFromConfig(cfg),
		APIGateway: apigateway.NewFromConfig(cfg),
		IAM:        iam.NewFromConfig(cfg),
		STS:        sts.NewFromConfig(cfg),
	}, nil
}

// =============================================================================
// AWS Provider
// =============================================================================

// AWSProvider implements Provider for AWS Lambda behind API Gateway.
type AWSProvider struct {
	clients  AWSClients
	region   string
	settings deployment.Settings
	roleWait time.Duration
	sleep    func(context.Context, time.Duration) error
	logger   *slog.Logger
}

// AWSOption configures an AWSProvider.
type AWSOption func(*AWSProvider)

// WithRoleWait sets how long to wait for a new role to propagate.
func WithRoleWait(d time.Duration) AWSOption {
	return func(p *AWSProvider) {
		if d >= 0 {
			p.roleWait = d
		}
	}
}

// withSleep replaces the wait function.
func withSleep(fn func(context.Context, time.Duration) error) AWSOption {
	return func(p *AWSProvider) {
		p.sleep = fn
	}
}

// NewAWSProvider creates an AWS provider for region.
func NewAWSProvider(clients AWSClients, region string, settings deployment.Settings, logger *slog.Logger, opts ...AWSOption) *AWSProvider {
	if logger == nil {
		logger = slog.Default()
	}
	p := &AWSProvider{
		clients:  clients,
		region:   region,
		settings: settings.WithDefaults(),
		roleWait: defaultRoleWait,
		sleep:    sleepContext,
		logger:   logger.With("provider", awsProviderLabel, "region", region),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Name implements Provider.
func (p *AWSProvider) Name() string {
	return awsProviderLabel
}

// Deploy checks the plan against the Lambda quotas, resets the environment,
// then creates the execution role, the REST API, one layer per dependency,
// and one exposed function per path step. The stage is deployed last.
func (p *AWSProvider) Deploy(ctx context.Context, path []catalog.ServiceFunction) ([]choreography.Endpoint, error) {
	plan := deployment.BuildPlan(path, p.settings)
	if err := limits.ValidatePlan(limits.LambdaLimits(), plan).Error(); err != nil {
		return nil, err
	}

	if err := p.Reset(ctx); err != nil {
		return nil, err
	}

	accountID, err := p.accountID(ctx)
	if err != nil {
		return nil, err
	}

	roleARN, err := p.createRole(ctx)
	if err != nil {
		return nil, err
	}

	apiID, err := p.createAPI(ctx)
	if err != nil {
		return nil, err
	}

	layerARNs := make(map[string]string, len(plan.Layers))
	for _, layer := range plan.Layers {
		arn, err := p.publishLayer(ctx, layer)
		if err != nil {
			return nil, err
		}
		layerARNs[layer.Name] = arn
	}

	rootID, err := p.rootResourceID(ctx, apiID)
	if err != nil {
		return nil, err
	}

	endpoints := make([]choreography.Endpoint, 0, len(plan.Functions))
	for _, fp := range plan.Functions {
		url, err := p.deployFunction(ctx, fp, roleARN, apiID, rootID, accountID, layerARNs)
		if err != nil {
			return nil, err
		}
		endpoints = append(endpoints, choreography.Endpoint{
			Function: fp.Function.Name,
			Kind:     catalog.ResourceServerless,
			Link:     url,
		})
	}

	if _, err := p.clients.APIGateway.CreateDeployment(ctx, &apigateway.CreateDeploymentInput{
		RestApiId: aws.String(apiID),
		StageName: aws.String(p.settings.Stage),
	}); err != nil {
		return nil, p.wrap("CreateDeployment", p.settings.Stage, err)
	}
	p.logger.Info("API deployed", "api_id", apiID, "stage", p.settings.Stage, "functions", len(endpoints))

	return plan.StepEndpoints(endpoints), nil
}

func (p *AWSProvider) accountID(ctx context.Context) (string, error) {
	out, err := p.clients.STS.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", p.wrap("GetCallerIdentity", "", err)
	}
	return aws.ToString(out.Account), nil
}

func (p *AWSProvider) createRole(ctx context.Context) (string, error) {
	name := p.settings.RoleName
	out, err := p.clients.IAM.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(name),
		AssumeRolePolicyDocument: aws.String(lambdaTrustPolicy),
	})
	if err != nil {
		return "", p.wrap("CreateRole", name, err)
	}
	if out.Role == nil || out.Role.Arn == nil {
		return "", p.wrap("CreateRole", name, ErrMissingARN)
	}

	for _, policy := range p.settings.Policies {
		if _, err := p.clients.IAM.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
			RoleName:  aws.String(name),
			PolicyArn: aws.String(policy),
		}); err != nil {
			return "", p.wrap("AttachRolePolicy", policy, err)
		}
	}

	p.logger.Info("created role", "role", name, "policies", len(p.settings.Policies))

	// IAM is eventually consistent; Lambda rejects a role it cannot assume yet.
	if err := p.sleep(ctx, p.roleWait); err != nil {
		return "", err
	}
	return aws.ToString(out.Role.Arn), nil
}

func (p *AWSProvider) createAPI(ctx context.Context) (string, error) {
	out, err := p.clients.APIGateway.CreateRestApi(ctx, &apigateway.CreateRestApiInput{
		Name:        aws.String(p.settings.APIName),
		Description: aws.String("API Gateway to expose multiple Lambda functions"),
	})
	if err != nil {
		return "", p.wrap("CreateRestApi", p.settings.APIName, err)
	}
	apiID := aws.ToString(out.Id)
	p.logger.Info("created API", "api_id", apiID)
	return apiID, nil
}

func (p *AWSProvider) publishLayer(ctx context.Context, layer deployment.LayerPlan) (string, error) {
	content, err := os.ReadFile(layer.Archive)
	if err != nil {
		return "", p.wrap("PublishLayerVersion", layer.Name, err)
	}

	out, err := p.clients.Lambda.PublishLayerVersion(ctx, &lambda.PublishLayerVersionInput{
		LayerName:          aws.String(layer.Name),
		Description:        aws.String("Lambda Layer for " + layer.Name),
		Content:            &lambdatypes.LayerVersionContentInput{ZipFile: content},
		CompatibleRuntimes: []lambdatypes.Runtime{lambdatypes.Runtime(p.settings.Runtime)},
	})
	if err != nil {
		return "", p.wrap("PublishLayerVersion", layer.Name, err)
	}
	if out.LayerVersionArn == nil {
		return "", p.wrap("PublishLayerVersion", layer.Name, ErrMissingARN)
	}

	p.logger.Info("published layer", "layer", layer.Name)
	return aws.ToString(out.LayerVersionArn), nil
}

func (p *AWSProvider) rootResourceID(ctx context.Context, apiID string) (string, error) {
	pager := apigateway.NewGetResourcesPaginator(p.clients.APIGateway, &apigateway.GetResourcesInput{
		RestApiId: aws.String(apiID),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return "", p.wrap("GetResources", apiID, err)
		}
		for _, r := range page.Items {
			if aws.ToString(r.Path) == "/" {
				return aws.ToString(r.Id), nil
			}
		}
	}
	return "", p.wrap("GetResources", apiID, ErrRootResourceNotFound)
}

func (p *AWSProvider) deployFunction(ctx context.Context, fp deployment.FunctionPlan, roleARN, apiID, rootID, accountID string, layerARNs map[string]string) (string, error) {
	name := fp.Function.Name

	if err := archive.ZipFile(fp.Source, fp.Archive); err != nil {
		return "", p.wrap("ZipFunction", name, err)
	}
	code, err := os.ReadFile(fp.Archive)
	if err != nil {
		return "", p.wrap("ZipFunction", name, err)
	}

	layers := make([]string, 0, len(fp.Layers))
	for _, l := range fp.Layers {
		layers = append(layers, layerARNs[l])
	}

	functionARN, err := p.createFunction(ctx, &lambda.CreateFunctionInput{
		FunctionName: aws.String(fp.Name),
		Role:         aws.String(roleARN),
		Handler:      aws.String(fp.Handler),
		Runtime:      lambdatypes.Runtime(fp.Runtime),
		MemorySize:   aws.Int32(int32(fp.Memory)),
		Timeout:      aws.Int32(int32(fp.Timeout)),
		Layers:       layers,
		Code:         &lambdatypes.FunctionCode{ZipFile: code},
	})
	if err != nil {
		return "", err
	}

	resource, err := p.clients.APIGateway.CreateResource(ctx, &apigateway.CreateResourceInput{
		RestApiId: aws.String(apiID),
		ParentId:  aws.String(rootID),
		PathPart:  aws.String(fp.ResourcePath),
	})
	if err != nil {
		return "", p.wrap("CreateResource", name, err)
	}
	resourceID := aws.ToString(resource.Id)

	if _, err := p.clients.APIGateway.PutMethod(ctx, &apigateway.PutMethodInput{
		RestApiId:         aws.String(apiID),
		ResourceId:        aws.String(resourceID),
		HttpMethod:        aws.String(httpMethodPost),
		AuthorizationType: aws.String("NONE"),
	}); err != nil {
		return "", p.wrap("PutMethod", name, err)
	}

	if _, err := p.clients.APIGateway.PutIntegration(ctx, &apigateway.PutIntegrationInput{
		RestApiId:             aws.String(apiID),
		ResourceId:            aws.String(resourceID),
		HttpMethod:            aws.String(httpMethodPost),
		Type:                  apigwtypes.IntegrationTypeAwsProxy,
		IntegrationHttpMethod: aws.String(httpMethodPost),
		Uri:                   aws.String(deployment.IntegrationURI(p.region, functionARN)),
	}); err != nil {
		return "", p.wrap("PutIntegration", name, err)
	}

	if _, err := p.clients.Lambda.AddPermission(ctx, &lambda.AddPermissionInput{
		FunctionName: aws.String(functionARN),
		StatementId:  aws.String(fp.StatementID),
		Action:       aws.String(invokeAction),
		Principal:    aws.String(apiPrincipal),
		SourceArn: aws.String(deployment.ExecuteAPISourceARN(
			p.region, accountID, apiID, p.settings.Stage, httpMethodPost, fp.ResourcePath)),
	}); err != nil {
		return "", p.wrap("AddPermission", name, err)
	}

	url := deployment.StageURL(apiID, p.region, p.settings.Stage, fp.ResourcePath)
	p.logger.Info("deployed function", "function", name, "url", url)
	return url, nil
}

// createFunction retries while the execution role is not yet assumable.
func (p *AWSProvider) createFunction(ctx context.Context, in *lambda.CreateFunctionInput) (string, error) {
	name := aws.ToString(in.FunctionName)
	var lastErr error
	for attempt := 1; attempt <= createAttempts; attempt++ {
		out, err := p.clients.Lambda.CreateFunction(ctx, in)
		if err == nil {
			if out.FunctionArn == nil {
				return "", p.wrap("CreateFunction", name, ErrMissingARN)
			}
			return aws.ToString(out.FunctionArn), nil
		}
		if !isRoleNotReady(err) {
			return "", p.wrap("CreateFunction", name, err)
		}
		lastErr = err
		p.logger.Debug("role not assumable yet", "function", name, "attempt", attempt)
		if err := p.sleep(ctx, p.roleWait); err != nil {
			return "", err
		}
	}
	return "", p.wrap("CreateFunction", name, lastErr)
}

// =============================================================================
// Reset
// =============================================================================

// Reset deletes prefixed functions and layers, APIs with the configured
// name, and roles whose name starts with the configured role name.
func (p *AWSProvider) Reset(ctx context.Context) error {
	functions, err := p.listFunctions(ctx)
	if err != nil {
		return err
	}
	for _, name := range functions {
		_, err := p.clients.Lambda.DeleteFunction(ctx, &lambda.DeleteFunctionInput{FunctionName: aws.String(name)})
		if err := p.ignoreNotFound("DeleteFunction", name, err); err != nil {
			return err
		}
		p.logger.Info("deleted function", "function", name)
	}

	layers, err := p.listLayers(ctx)
	if err != nil {
		return err
	}
	for _, name := range layers {
		if err := p.deleteLayer(ctx, name); err != nil {
			return err
		}
		p.logger.Info("deleted layer", "layer", name)
	}

	apis, err := p.listAPIs(ctx)
	if err != nil {
		return err
	}
	for _, id := range apis {
		_, err := p.clients.APIGateway.DeleteRestApi(ctx, &apigateway.DeleteRestApiInput{RestApiId: aws.String(id)})
		if err := p.ignoreNotFound("DeleteRestApi", id, err); err != nil {
			return err
		}
		p.logger.Info("deleted API", "api_id", id)
	}

	roles, err := p.listRoles(ctx)
	if err != nil {
		return err
	}
	for _, name := range roles {
		if err := p.deleteRole(ctx, name); err != nil {
			return err
		}
		p.logger.Info("deleted role", "role", name)
	}

	return nil
}

func (p *AWSProvider) listFunctions(ctx context.Context) ([]string, error) {
	var names []string
	pager := lambda.NewListFunctionsPaginator(p.clients.Lambda, &lambda.ListFunctionsInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, p.wrap("ListFunctions", "", err)
		}
		for _, fn := range page.Functions {
			if name := aws.ToString(fn.FunctionName); strings.HasPrefix(name, p.settings.Prefix) {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

func (p *AWSProvider) listLayers(ctx context.Context) ([]string, error) {
	var names []string
	pager := lambda.NewListLayersPaginator(p.clients.Lambda, &lambda.ListLayersInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, p.wrap("ListLayers", "", err)
		}
		for _, l := range page.Layers {
			if name := aws.ToString(l.LayerName); strings.HasPrefix(name, p.settings.Prefix) {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// deleteLayer deletes every version of a layer.
func (p *AWSProvider) deleteLayer(ctx context.Context, name string) error {
	pager := lambda.NewListLayerVersionsPaginator(p.clients.Lambda, &lambda.ListLayerVersionsInput{
		LayerName: aws.String(name),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return p.ignoreNotFound("ListLayerVersions", name, err)
		}
		for _, v := range page.LayerVersions {
			_, err := p.clients.Lambda.DeleteLayerVersion(ctx, &lambda.DeleteLayerVersionInput{
				LayerName:     aws.String(name),
				VersionNumber: aws.Int64(v.Version),
			})
			if err := p.ignoreNotFound("DeleteLayerVersion", name, err); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *AWSProvider) listAPIs(ctx context.Context) ([]string, error) {
	var ids []string
	pager := apigateway.NewGetRestApisPaginator(p.clients.APIGateway, &apigateway.GetRestApisInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, p.wrap("GetRestApis", "", err)
		}
		for _, api := range page.Items {
			if aws.ToString(api.Name) == p.settings.APIName {
				ids = append(ids, aws.ToString(api.Id))
			}
		}
	}
	return ids, nil
}

func (p *AWSProvider) listRoles(ctx context.Context) ([]string, error) {
	var names []string
	pager := iam.NewListRolesPaginator(p.clients.IAM, &iam.ListRolesInput{})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, p.wrap("ListRoles", "", err)
		}
		for _, r := range page.Roles {
			if name := aws.ToString(r.RoleName); strings.HasPrefix(name, p.settings.RoleName) {
				names = append(names, name)
			}
		}
	}
	return names, nil
}

// deleteRole detaches every managed policy, then deletes the role.
func (p *AWSProvider) deleteRole(ctx context.Context, name string) error {
	pager := iam.NewListAttachedRolePoliciesPaginator(p.clients.IAM, &iam.ListAttachedRolePoliciesInput{
		RoleName: aws.String(name),
	})
	for pager.HasMorePages() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return p.ignoreNotFound("ListAttachedRolePolicies", name, err)
		}
		for _, policy := range page.AttachedPolicies {
			_, err := p.clients.IAM.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
				RoleName:  aws.String(name),
				PolicyArn: policy.PolicyArn,
			})
			if err := p.ignoreNotFound("DetachRolePolicy", name, err); err != nil {
				return err
			}
		}
	}

	_, err := p.clients.IAM.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(name)})
	return p.ignoreNotFound("DeleteRole", name, err)
}

// =============================================================================
// Helpers
// =============================================================================

func (p *AWSProvider) wrap(op, resource string, err error) error {
	return NewProviderError(awsProviderLabel, op, resource, err)
}

// ignoreNotFound treats a missing resource as already deleted.
func (p *AWSProvider) ignoreNotFound(op, resource string, err error) error {
	if err == nil {
		return nil
	}
	if isNotFound(err) {
		p.logger.Debug("resource already deleted", "op", op, "resource", resource)
		return nil
	}
	return p.wrap(op, resource, err)
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.ErrorCode() {
	case "ResourceNotFoundException", "NotFoundException", "NoSuchEntity":
		return true
	}
	return false
}

func isRoleNotReady(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == "InvalidParameterValueException" &&
		strings.Contains(apiErr.ErrorMessage(), "cannot be assumed")
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"pfotencard-backend/config"

	"github.com/aliyun/alibaba-cloud-sdk-go/sdk/requests"
	"github.com/aliyun/alibaba-cloud-sdk-go/services/sts"
)

// ObjectStore stores uploaded files by key.
type ObjectStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) error
	SignedURL(ctx context.Context, key string, ttl time.Duration) (string, error)
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

const uploadTokenSeconds = 900

// STSCredentials let the browser upload straight to the public bucket, limited
// to keys below Prefix.
type STSCredentials struct {
	AccessKeyId     string `json:"accessKeyId"`
	AccessKeySecret string `json:"accessKeySecret"`
	SecurityToken   string `json:"securityToken"`
	Expiration      string `json:"expiration"`
	Region          string `json:"region"`
	Bucket          string `json:"bucket"`
	Prefix          string `json:"prefix"`
}

// imagePrefix is the key prefix public images are stored under for the given month.
func imagePrefix(now time.Time) string {
	return fmt.Sprintf("images/%d/%02d/", now.Year(), now.Month())
}

// stsRegionID strips the "oss-" prefix OSS regions carry and STS does not accept.
func stsRegionID(region string) string {
	return strings.TrimPrefix(region, "oss-")
}

// uploadPolicy narrows the assumed role to PutObject below prefix in bucket.
func uploadPolicy(bucket, prefix string) (string, error) {
	policy := map[string]interface{}{
		"Version": "1",
		"Statement": []map[string]interface{}{{
			"Effect":   "Allow",
			"Action":   []string{"oss:PutObject"},
			"Resource": []string{fmt.Sprintf("acs:oss:*:*:%s/%s*", bucket, prefix)},
		}},
	}
	b, err := json.Marshal(policy)
	return string(b), err
}

func GetOSSTSToken() (*STSCredentials, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.OSSRoleArn == "" {
		return nil, errors.New("OSS upload role is not configured")
	}

	prefix := imagePrefix(time.Now())
	policy, err := uploadPolicy(cfg.OSSPublicBucketName, prefix)
	if err != nil {
		return nil, err
	}

	client, err := sts.NewClientWithAccessKey(stsRegionID(cfg.OSSRegion), cfg.OSSAccessKeyID, cfg.OSSAccessKeySecret)
	if err != nil {
		return nil, err
	}

	request := sts.CreateAssumeRoleRequest()
	request.Scheme = "https"
	request.RoleArn = cfg.OSSRoleArn
	request.RoleSessionName = "pfotencard-upload"
	request.DurationSeconds = requests.NewInteger(uploadTokenSeconds)
	request.Policy = policy

	response, err := client.AssumeRole(request)
	if err != nil {
		return nil, err
	}

	return &STSCredentials{
		AccessKeyId:     response.Credentials.AccessKeyId,
		AccessKeySecret: response.Credentials.AccessKeySecret,
		SecurityToken:   response.Credentials.SecurityToken,
		Expiration:      response.Credentials.Expiration,
		Region:          cfg.OSSRegion,
		Bucket:          cfg.OSSPublicBucketName,
		Prefix:          prefix,
	}, nil
}

package core

import (
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/cloudwatch"
)

// MetricPublisher is the part of the CloudWatch client the exporters depend on.
type MetricPublisher interface {
	PutMetric(metricName string, unitName string, metricValue float64) error
}

type AWSCloudWatchClient struct {
	Region    string
	Namespace string
	Dimension string

	once         sync.Once
	watchService *cloudwatch.CloudWatch
	initErr      error
}

func NewCloudWatchClient(region string, namespace string, dimension string) *AWSCloudWatchClient {
	return &AWSCloudWatchClient{
		Region:    region,
		Namespace: namespace,
		Dimension: dimension,
	}
}

func (c *AWSCloudWatchClient) init() {
	sess, err := session.NewSession(&aws.Config{Region: aws.String(c.Region)})
	if err != nil {
		c.initErr = fmt.Errorf("create aws session failed: %w", err)
		return
	}
	c.watchService = cloudwatch.New(sess)
}

func (c *AWSCloudWatchClient) PutMetric(metricName string, unitName string, metricValue float64) error {
	c.once.Do(c.init)
	if c.initErr != nil {
		return c.initErr
	}

	params := &cloudwatch.PutMetricDataInput{
		MetricData: []*cloudwatch.MetricDatum{
			{
				MetricName: aws.String(metricName),
				Timestamp:  aws.Time(time.Now()),
				Unit:       aws.String(unitName),
				Value:      aws.Float64(metricValue),
				Dimensions: []*cloudwatch.Dimension{
					{
						Name:  aws.String("creator"),
						Value: aws.String(c.Dimension),
					},
				},
			},
		},
		Namespace: aws.String(c.Namespace),
	}

	_, err := c.watchService.PutMetricData(params)
	if err != nil {
		return fmt.Errorf("put cloudwatch metric %v failed: %w", metricName, err)
	}
	return nil
}

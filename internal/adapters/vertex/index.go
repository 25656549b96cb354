// Package vertex queries a Vertex AI Vector Search index of labeled emails.
package vertex

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/mikey/email-fraud-detector/internal/core"
	"go.uber.org/zap"
	aiplatform "google.golang.org/api/aiplatform/v1"
	"google.golang.org/api/option"
)

// Restrict namespaces that carry sample metadata on each datapoint
const (
	NamespaceSender  = "sender"
	NamespaceSubject = "subject"
	NamespaceLabel   = "label"
	NamespaceURLs    = "urls"
	NamespaceBody    = "body"
)

// Index is an implementation of the VectorIndex interface on a deployed
// Vertex AI index endpoint
type Index struct {
	service            *aiplatform.Service
	indexEndpoint      string
	deployedIndexID    string
	distanceSimilarity bool
	logger             *zap.Logger
}

// Options describes the deployed index to query
type Options struct {
	Project              string
	Location             string
	IndexEndpoint        string
	DeployedIndexID      string
	APIEndpoint          string
	DistanceIsSimilarity bool
}

// NewIndex creates a Vertex index client. Extra client options are appended
// after the endpoint option.
func NewIndex(ctx context.Context, opts Options, logger *zap.Logger, clientOpts ...option.ClientOption) (*Index, error) {
	if opts.IndexEndpoint == "" {
		return nil, &core.ConfigurationError{Key: "vertex.index_endpoint", Reason: "index endpoint is required"}
	}
	if opts.DeployedIndexID == "" {
		return nil, &core.ConfigurationError{Key: "vertex.deployed_index_id", Reason: "deployed index ID is required"}
	}

	endpoint := ResourceName(opts.Project, opts.Location, opts.IndexEndpoint)
	if !strings.HasPrefix(endpoint, "projects/") {
		return nil, &core.ConfigurationError{Key: "vertex.project", Reason: "project is required when index endpoint is not a resource name"}
	}

	apiEndpoint := opts.APIEndpoint
	if apiEndpoint == "" {
		apiEndpoint = fmt.Sprintf("https://%s-aiplatform.googleapis.com/", opts.Location)
	}

	all := append([]option.ClientOption{option.WithEndpoint(apiEndpoint)}, clientOpts...)
	svc, err := aiplatform.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}

	return &Index{
		service:            svc,
		indexEndpoint:      endpoint,
		deployedIndexID:    opts.DeployedIndexID,
		distanceSimilarity: opts.DistanceIsSimilarity,
		logger:             logger,
	}, nil
}

// ResourceName expands a bare index endpoint ID into its resource name
func ResourceName(project, location, indexEndpoint string) string {
	if strings.HasPrefix(indexEndpoint, "projects/") || project == "" {
		return indexEndpoint
	}
	return fmt.Sprintf("projects/%s/locations/%s/indexEndpoints/%s", project, location, indexEndpoint)
}

// Query returns up to k nearest neighbors of the vector
func (i *Index) Query(ctx context.Context, vector []float32, k int) ([]core.SimilarityMatch, error) {
	features := make([]float64, len(vector))
	for j, v := range vector {
		features[j] = float64(v)
	}

	req := &aiplatform.GoogleCloudAiplatformV1FindNeighborsRequest{
		DeployedIndexId:     i.deployedIndexID,
		ReturnFullDatapoint: true,
		Queries: []*aiplatform.GoogleCloudAiplatformV1FindNeighborsRequestQuery{
			{
				NeighborCount: int64(k),
				Datapoint: &aiplatform.GoogleCloudAiplatformV1IndexDatapoint{
					FeatureVector: features,
				},
			},
		},
	}

	resp, err := i.service.Projects.Locations.IndexEndpoints.FindNeighbors(i.indexEndpoint, req).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to find neighbors: %w", err)
	}

	matches := []core.SimilarityMatch{}
	if len(resp.NearestNeighbors) == 0 || resp.NearestNeighbors[0] == nil {
		return matches, nil
	}

	for _, n := range resp.NearestNeighbors[0].Neighbors {
		if n == nil || n.Datapoint == nil {
			continue
		}
		distance := n.Distance
		if i.distanceSimilarity {
			distance = 1 - distance
		}
		matches = append(matches, core.SimilarityMatch{
			ID:       n.Datapoint.DatapointId,
			Distance: distance,
			Metadata: metadataFromRestricts(n.Datapoint.Restricts),
		})
	}

	i.logger.Debug("Vertex neighbors found",
		zap.String("index_endpoint", i.indexEndpoint),
		zap.Int("count", len(matches)))

	return matches, nil
}

func metadataFromRestricts(restricts []*aiplatform.GoogleCloudAiplatformV1IndexDatapointRestriction) core.MatchMetadata {
	var meta core.MatchMetadata
	for _, r := range restricts {
		if r == nil || len(r.AllowList) == 0 {
			continue
		}
		switch r.Namespace {
		case NamespaceSender:
			meta.Sender = r.AllowList[0]
		case NamespaceSubject:
			meta.Subject = r.AllowList[0]
		case NamespaceLabel:
			meta.Label = r.AllowList[0]
		case NamespaceBody:
			meta.BodyExcerpt = r.AllowList[0]
		case NamespaceURLs:
			// a single numeric token is a count, anything else lists the URLs
			if n, err := strconv.Atoi(r.AllowList[0]); err == nil && len(r.AllowList) == 1 {
				meta.URLCount = n
			} else {
				meta.URLCount = len(r.AllowList)
			}
		}
	}
	return meta
}

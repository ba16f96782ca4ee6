package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/marmos91/dittostore/pkg/drive"
	drivetesting "github.com/marmos91/dittostore/pkg/drive/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeObject is an object stored by fakeClient.
type fakeObject struct {
	data    []byte
	modTime time.Time
}

// fakeClient is an in-process stand-in for a single S3 bucket.
//
// ListObjectsV2 returns at most pageSize keys per call so the paginator is
// exercised.
type fakeClient struct {
	mu       sync.Mutex
	bucket   string
	objects  map[string]fakeObject
	pageSize int
	calls    []string
}

func newFakeClient(bucket string) *fakeClient {
	return &fakeClient{bucket: bucket, objects: make(map[string]fakeObject), pageSize: 2}
}

func (c *fakeClient) checkBucket(bucket *string) error {
	if aws.ToString(bucket) != c.bucket {
		return &types.NoSuchBucket{Message: aws.String("no such bucket")}
	}
	return nil
}

func (c *fakeClient) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "GetObject")
	if err := c.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	obj, ok := c.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{Message: aws.String("The specified key does not exist.")}
	}
	return &s3.GetObjectOutput{
		Body:          io.NopCloser(bytes.NewReader(obj.data)),
		ContentLength: aws.Int64(int64(len(obj.data))),
	}, nil
}

func (c *fakeClient) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "PutObject")
	if err := c.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	c.objects[aws.ToString(in.Key)] = fakeObject{data: data, modTime: time.Now().UTC()}
	return &s3.PutObjectOutput{}, nil
}

func (c *fakeClient) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "DeleteObject")
	if err := c.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	delete(c.objects, aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func (c *fakeClient) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "HeadObject")
	if err := c.checkBucket(in.Bucket); err != nil {
		return nil, err
	}
	obj, ok := c.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NotFound{Message: aws.String("Not Found")}
	}
	return &s3.HeadObjectOutput{
		ContentLength: aws.Int64(int64(len(obj.data))),
		LastModified:  aws.Time(obj.modTime),
	}, nil
}

func (c *fakeClient) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, "ListObjectsV2")
	if err := c.checkBucket(in.Bucket); err != nil {
		return nil, err
	}

	prefix := aws.ToString(in.Prefix)
	after := aws.ToString(in.ContinuationToken)

	keys := make([]string, 0, len(c.objects))
	for key := range c.objects {
		if strings.HasPrefix(key, prefix) && key > after {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)

	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	if len(keys) > c.pageSize {
		keys = keys[:c.pageSize]
		out.IsTruncated = aws.Bool(true)
		out.NextContinuationToken = aws.String(keys[len(keys)-1])
	}
	for _, key := range keys {
		obj := c.objects[key]
		out.Contents = append(out.Contents, types.Object{
			Key:          aws.String(key),
			Size:         aws.Int64(int64(len(obj.data))),
			LastModified: aws.Time(obj.modTime),
		})
	}
	out.KeyCount = aws.Int32(int32(len(out.Contents)))
	return out, nil
}

func (c *fakeClient) countCalls(op string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if call == op {
			n++
		}
	}
	return n
}

func newTestDrive(t *testing.T, client *fakeClient, prefix string) *S3Drive {
	t.Helper()
	d, err := NewS3Drive(context.Background(), Config{
		Client:    client,
		Bucket:    client.bucket,
		KeyPrefix: prefix,
	})
	require.NoError(t, err)
	return d
}

// TestS3Drive runs the complete drive conformance suite against S3Drive
// backed by an in-process fake bucket.
func TestS3Drive(t *testing.T) {
	suite := &drivetesting.DriveTestSuite{
		NewDrive: func(t *testing.T) drive.Drive {
			return newTestDrive(t, newFakeClient("test-bucket"), "drives/test")
		},
	}

	suite.Run(t)
}

func TestKeysAreNamespacedByPrefix(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient("b")
	d := newTestDrive(t, client, "/users/alice/")

	require.NoError(t, d.Put(ctx, "prog.bas", "x"))

	_, ok := client.objects["users/alice/prog.bas"]
	assert.True(t, ok, "objects: %v", client.objects)
}

func TestEnumerate_PaginatesAndSkipsNestedKeys(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient("b")
	d := newTestDrive(t, client, "p")

	for _, name := range []string{"e", "d", "c", "b", "a"} {
		require.NoError(t, d.Put(ctx, name, name+name))
	}
	client.objects["p/nested/deep"] = fakeObject{data: []byte("z"), modTime: time.Now()}
	client.objects["other/x"] = fakeObject{data: []byte("z"), modTime: time.Now()}

	entries, err := d.Enumerate(ctx)
	require.NoError(t, err)

	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
		assert.Equal(t, uint64(2), e.Length)
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names)
	assert.Greater(t, client.countCalls("ListObjectsV2"), 1)
}

func TestDelete_ChecksExistenceFirst(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient("b")
	d := newTestDrive(t, client, "")

	err := d.Delete(ctx, "missing")
	assert.True(t, drive.IsNotFound(err))
	assert.Equal(t, 0, client.countCalls("DeleteObject"))
}

func TestBackendErrorsAreIOErrors(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient("real-bucket")
	d, err := NewS3Drive(ctx, Config{Client: client, Bucket: "wrong-bucket"})
	require.NoError(t, err)

	err = d.Put(ctx, "a", "1")
	assert.True(t, drive.HasCode(err, drive.ErrIOError), "got %v", err)

	var noSuchBucket *types.NoSuchBucket
	assert.True(t, errors.As(err, &noSuchBucket))
}

func TestNewS3Drive_Validation(t *testing.T) {
	ctx := context.Background()

	_, err := NewS3Drive(ctx, Config{Bucket: "b"})
	assert.True(t, drive.IsInvalidArgument(err))

	_, err = NewS3Drive(ctx, Config{Client: newFakeClient("b")})
	assert.True(t, drive.IsInvalidArgument(err))
}

func TestInvalidNames(t *testing.T) {
	d := newTestDrive(t, newFakeClient("b"), "")

	err := d.Put(context.Background(), "a/b", "x")
	assert.True(t, drive.IsInvalidArgument(err))
}

func TestFactory_MapsTarget(t *testing.T) {
	ctx := context.Background()
	client := newFakeClient("bucket")
	target, err := drive.ParseMountTarget("s3://bucket/some/prefix")
	require.NoError(t, err)

	d, err := Factory{Client: client}.Create(ctx, target)
	require.NoError(t, err)
	require.NoError(t, d.Put(ctx, "f", "1"))

	_, ok := client.objects["some/prefix/f"]
	assert.True(t, ok)
}

type recordingMetrics struct {
	ops   []string
	bytes map[string]int64
}

func (m *recordingMetrics) ObserveOperation(operation string, _ time.Duration, _ error) {
	m.ops = append(m.ops, operation)
}

func (m *recordingMetrics) RecordBytes(operation string, n int64) {
	m.bytes[operation] += n
}

func TestMetricsAreRecorded(t *testing.T) {
	ctx := context.Background()
	metrics := &recordingMetrics{bytes: map[string]int64{}}
	d, err := NewS3Drive(ctx, Config{Client: newFakeClient("b"), Bucket: "b", Metrics: metrics})
	require.NoError(t, err)

	require.NoError(t, d.Put(ctx, "a", "hello"))
	_, err = d.Get(ctx, "a")
	require.NoError(t, err)

	assert.Equal(t, []string{"PutObject", "GetObject"}, metrics.ops)
	assert.Equal(t, int64(5), metrics.bytes["write"])
	assert.Equal(t, int64(5), metrics.bytes["read"])
}

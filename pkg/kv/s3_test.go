package kv

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
)

type fakeObject struct {
	body []byte
	etag string
}

// fakeObjects implements the conditional-write semantics of S3 for GetObject and PutObject.
type fakeObjects struct {
	mu        sync.Mutex
	objects   map[string]fakeObject
	version   int
	beforePut func()
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string]fakeObject{}}
}

func (f *fakeObjects) GetObject(_ context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	obj, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}

	return &s3.GetObjectOutput{
		Body: io.NopCloser(bytes.NewReader(obj.body)),
		ETag: aws.String(obj.etag),
	}, nil
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.beforePut != nil {
		f.beforePut()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	key := aws.ToString(in.Key)
	obj, ok := f.objects[key]

	if in.IfNoneMatch != nil && ok {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}

	if in.IfMatch != nil && (!ok || obj.etag != aws.ToString(in.IfMatch)) {
		return nil, &smithy.GenericAPIError{Code: "PreconditionFailed"}
	}

	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}

	f.version++
	etag := fmt.Sprintf("%q", fmt.Sprintf("v%d", f.version))
	f.objects[key] = fakeObject{body: body, etag: etag}

	return &s3.PutObjectOutput{ETag: aws.String(etag)}, nil
}

func (f *fakeObjects) put(key, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.version++
	f.objects[key] = fakeObject{body: []byte(body), etag: fmt.Sprintf("%q", fmt.Sprintf("v%d", f.version))}
}

func TestS3Store(t *testing.T) {
	t.Parallel()

	runStoreTests(t, func(t *testing.T) Store {
		return newS3(newFakeObjects(), "bucket", "", 100)
	})
}

func TestS3ObjectKeyUsesPrefix(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	fake := newFakeObjects()
	store := newS3(fake, "bucket", "users/42/", 0)

	err := store.Update(context.Background(), "sqr1-events", func([]byte) ([]byte, error) { return []byte(`[]`), nil })
	assert.Nil(err)

	_, ok := fake.objects["users/42/sqr1-events.json"]
	assert.True(ok)
	assert.Equal(DefaultMaxRetries, store.maxRetries)
}

func TestS3RetriesOnPreconditionFailure(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	fake := newFakeObjects()
	store := newS3(fake, "bucket", "", 5)
	ctx := context.Background()

	fake.put("k.json", "first")

	raced := false
	fake.beforePut = func() {
		if !raced {
			raced = true
			fake.put("k.json", "racer")
		}
	}

	var seen []string
	err := store.Update(ctx, "k", func(current []byte) ([]byte, error) {
		seen = append(seen, string(current))

		return append(current, []byte("+mine")...), nil
	})
	assert.Nil(err)
	assert.Equal([]string{"first", "racer"}, seen)

	data, err := store.Get(ctx, "k")
	assert.Nil(err)
	assert.Equal("racer+mine", string(data))
}

func TestS3GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)
	fake := newFakeObjects()
	store := newS3(fake, "bucket", "", 3)

	fake.beforePut = func() { fake.put("k.json", "someone else") }

	err := store.Update(context.Background(), "k", func([]byte) ([]byte, error) { return []byte("mine"), nil })
	assert.ErrorIs(err, ErrConflict)
}

func TestS3ErrorClassification(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	assert.True(isNotFound(&types.NoSuchKey{}))
	assert.True(isNotFound(&smithy.GenericAPIError{Code: "NotFound"}))
	assert.False(isNotFound(errors.New("boom")))
	assert.False(isNotFound(nil))

	assert.True(isPreconditionFailed(&smithy.GenericAPIError{Code: "PreconditionFailed"}))
	assert.True(isPreconditionFailed(&smithy.GenericAPIError{Code: "ConditionalRequestConflict"}))
	assert.False(isPreconditionFailed(&smithy.GenericAPIError{Code: "AccessDenied"}))
}

func TestNewS3RequiresBucket(t *testing.T) {
	t.Parallel()

	assert := assert.New(t)

	store, err := NewS3(context.Background(), S3Config{}, 0)
	assert.Nil(store)
	assert.EqualError(err, "s3 bucket required")
}

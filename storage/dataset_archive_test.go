package storage

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeObjects struct {
	objects map[string][]byte
	err     error
}

func (f *fakeObjects) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	body, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.objects[aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key)] = body
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeObjects) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	delete(f.objects, aws.ToString(in.Bucket)+"/"+aws.ToString(in.Key))
	return &s3.DeleteObjectOutput{}, nil
}

func TestDatasetArchivePutDelete(t *testing.T) {
	objects := &fakeObjects{objects: make(map[string][]byte)}
	archive := NewDatasetArchive(objects, "qc-bucket", "uploads")
	ctx := context.Background()

	if err := archive.Put(ctx, "line-7.csv", []byte("a,b\n1,2\n")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if got := string(objects.objects["qc-bucket/uploads/line-7.csv"]); got != "a,b\n1,2\n" {
		t.Fatalf("unexpected archived content %q", got)
	}

	if err := archive.Delete(ctx, "line-7.csv"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if len(objects.objects) != 0 {
		t.Fatalf("expected archive to be empty, got %d objects", len(objects.objects))
	}
}

func TestDatasetArchiveKeyStripsDirectories(t *testing.T) {
	archive := NewDatasetArchive(nil, "b", "uploads")
	if got := archive.Key("../../etc/passwd.csv"); got != "uploads/passwd.csv" {
		t.Fatalf("unexpected key %q", got)
	}
}

func TestDatasetArchiveWrapsErrors(t *testing.T) {
	sentinel := errors.New("access denied")
	archive := NewDatasetArchive(&fakeObjects{err: sentinel}, "b", "")
	if err := archive.Put(context.Background(), "x.csv", nil); !errors.Is(err, sentinel) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

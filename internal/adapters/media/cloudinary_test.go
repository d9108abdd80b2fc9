package media

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudinary/cloudinary-go/v2/api"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/lab-portal/internal/ports"
)

type fakeUploadAPI struct {
	gotUpload  uploader.UploadParams
	gotDestroy uploader.DestroyParams
	uploadRes  *uploader.UploadResult
	destroyRes *uploader.DestroyResult
	err        error
}

func (f *fakeUploadAPI) Upload(_ context.Context, _ interface{}, p uploader.UploadParams) (*uploader.UploadResult, error) {
	f.gotUpload = p
	return f.uploadRes, f.err
}

func (f *fakeUploadAPI) Destroy(_ context.Context, p uploader.DestroyParams) (*uploader.DestroyResult, error) {
	f.gotDestroy = p
	return f.destroyRes, f.err
}

func TestCloudinaryUploader_Upload(t *testing.T) {
	fake := &fakeUploadAPI{uploadRes: &uploader.UploadResult{
		PublicID:  "lab/projects/cover_1234",
		SecureURL: "https://res.cloudinary.com/lab/image/upload/lab/projects/cover_1234.png",
	}}
	u := &CloudinaryUploader{api: fake, rootFolder: "lab"}

	got, err := u.Upload(context.Background(), ports.UploadInput{
		Folder:   "projects",
		Filename: "Cover Photo.PNG",
		Body:     strings.NewReader("img"),
	})
	require.NoError(t, err)
	assert.Equal(t, "lab/projects/cover_1234", got.PublicID)
	assert.Contains(t, got.URL, "https://")
	assert.Equal(t, "lab/projects", fake.gotUpload.Folder)
	assert.True(t, strings.HasPrefix(fake.gotUpload.PublicID, "cover_photo_"), fake.gotUpload.PublicID)
	require.NotNil(t, fake.gotUpload.Overwrite)
	assert.False(t, *fake.gotUpload.Overwrite)
}

func TestCloudinaryUploader_Errors(t *testing.T) {
	u := &CloudinaryUploader{api: &fakeUploadAPI{err: errors.New("boom")}}
	_, err := u.Upload(context.Background(), ports.UploadInput{Body: strings.NewReader("x")})
	require.Error(t, err)

	_, err = u.Upload(context.Background(), ports.UploadInput{})
	require.Error(t, err)

	u = &CloudinaryUploader{api: &fakeUploadAPI{uploadRes: &uploader.UploadResult{Error: api.ErrorResp{Message: "invalid image"}}}}
	_, err = u.Upload(context.Background(), ports.UploadInput{Body: strings.NewReader("x")})
	require.ErrorContains(t, err, "invalid image")
}

func TestCloudinaryUploader_Delete(t *testing.T) {
	fake := &fakeUploadAPI{destroyRes: &uploader.DestroyResult{Result: "ok"}}
	u := &CloudinaryUploader{api: fake}

	require.NoError(t, u.Delete(context.Background(), "lab/x"))
	assert.Equal(t, "lab/x", fake.gotDestroy.PublicID)

	require.NoError(t, u.Delete(context.Background(), ""))
}

func TestPublicIDFor(t *testing.T) {
	assert.True(t, strings.HasPrefix(publicIDFor("../../etc/passwd"), "passwd_"))
	assert.True(t, strings.HasPrefix(publicIDFor(""), "image_"))
}

package domain

type FileAttachment struct {
	FileName string `json:"fileName" dynamodbav:"fileName"`
	FileType string `json:"fileType" dynamodbav:"fileType"`
	FileSize int64  `json:"fileSize" dynamodbav:"fileSize"`
	FileURL  string `json:"fileUrl" dynamodbav:"fileUrl"`
	S3Key    string `json:"s3Key" dynamodbav:"s3Key"`
}

// UploadTarget is a presigned PUT destination handed to browsers.
type UploadTarget struct {
	UploadURL string `json:"uploadUrl"`
	FileURL   string `json:"fileUrl"`
	Key       string `json:"key"`
}

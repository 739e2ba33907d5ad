package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// filesTotal 按结果统计单文件流水线
	filesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_ingest_files_total",
			Help: "Total number of file pipelines by outcome",
		},
		[]string{"outcome"},
	)

	// bytesTotal 已成功放置的字节数
	bytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_ingest_bytes_total",
		Help: "Total number of bytes placed at canonical paths",
	})

	// replacementsTotal 规范路径上被驱逐替换的次数
	replacementsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_ingest_replacements_total",
		Help: "Total number of canonical files evicted and replaced",
	})

	// batchesTotal 按结果统计整批上传
	batchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quill_ingest_batches_total",
			Help: "Total number of upload batches by outcome",
		},
		[]string{"outcome"},
	)

	// pipelineDuration 单文件流水线耗时
	pipelineDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "quill_ingest_pipeline_duration_seconds",
		Help:    "Duration of a single file pipeline in seconds",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
	})

	// sweptTotal 清理掉的孤儿临时文件
	sweptTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "quill_ingest_swept_temp_files_total",
		Help: "Total number of orphaned temp files removed by the sweeper",
	})
)

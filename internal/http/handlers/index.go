package handlers

import "net/http"

// Index serves a minimal upload page that drives the submit/poll/download
// flow without any client tooling.
func (a *App) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
	<title>Sora Video Enhancer</title>
	<meta name="viewport" content="width=device-width, initial-scale=1">
</head>
<body>
	<h1>Sora Video Enhancer</h1>
	<p>Remove watermarks and enhance quality. Upload a video, then poll until the download is ready.</p>
	<form id="f">
		<input type="file" name="file" required>
		<label><input type="checkbox" name="remove_watermark" checked> Remove watermark</label>
		<label><input type="checkbox" name="enhance_video" checked> Enhance video</label>
		<label><input type="checkbox" name="enhance_audio" checked> Enhance audio</label>
		<select name="video_preset">
			<option value="cinematic">Cinematic</option>
			<option value="vivid">Vivid</option>
			<option value="clean">Clean</option>
			<option value="hdr">HDR</option>
		</select>
		<select name="audio_preset">
			<option value="balanced">Balanced</option>
			<option value="voice">Voice</option>
			<option value="music">Music</option>
			<option value="podcast">Podcast</option>
		</select>
		<button type="submit">Enhance</button>
	</form>
	<p id="status"></p>
	<div id="download"></div>
	<script>
	const form = document.getElementById('f');
	const status = document.getElementById('status');
	const download = document.getElementById('download');
	form.addEventListener('submit', async (e) => {
		e.preventDefault();
		const data = new FormData(form);
		for (const name of ['remove_watermark', 'enhance_video', 'enhance_audio']) {
			data.set(name, form.elements[name].checked);
		}
		status.textContent = 'Uploading...';
		download.innerHTML = '';
		const res = await fetch('/enhance', {method: 'POST', body: data});
		if (!res.ok) {
			const body = await res.json();
			status.textContent = 'Error: ' + body.message;
			return;
		}
		const {job_id} = await res.json();
		while (true) {
			await new Promise(r => setTimeout(r, 2000));
			const job = await (await fetch('/status/' + job_id)).json();
			if (job.status === 'complete') {
				status.textContent = 'Done';
				download.innerHTML = '<a href="/download/' + job_id + '">Download enhanced video</a>';
				return;
			}
			if (job.status === 'error') {
				status.textContent = 'Error: ' + (job.error || 'processing failed');
				return;
			}
			status.textContent = (job.step || 'Processing') + ' (' + job.progress + '%)';
		}
	});
	</script>
</body>
</html>
`
